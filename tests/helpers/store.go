// Package helpers holds fixtures shared by package tests.
package helpers

import (
	"testing"

	store "github.com/DataWorksAI-com/MbtaWinter2026/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
