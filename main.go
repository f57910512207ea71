package main

import (
	"os"

	"github.com/DataWorksAI-com/MbtaWinter2026/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
