package main

import (
	"os"

	"rollout.sh/cmd/rolloutctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
