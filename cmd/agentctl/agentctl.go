package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/agentrelay/agentrelay/internal/agentctl"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	if err := agentctl.NewDefaultCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
