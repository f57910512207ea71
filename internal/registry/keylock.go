package registry

import (
	"context"
	"sync"
)

// recordKey names one record mirrored to the store.
type recordKey struct {
	client bool
	name   string
}

func agentKey(agentID string) recordKey { return recordKey{name: agentID} }

func clientKey(clientName string) recordKey { return recordKey{client: true, name: clientName} }

// keyLocks hands out one lock per record. A waiter gives up when its
// context is done, so a hung write on one record delays the next write on
// that record by at most the waiter's own deadline.
type keyLocks struct {
	mu    sync.Mutex
	locks map[recordKey]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func (k *keyLocks) lock(ctx context.Context, key recordKey) (unlock func(), err error) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[recordKey]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			k.release(key, l)
		}, nil
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
}

func (k *keyLocks) release(key recordKey, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}
