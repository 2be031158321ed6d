package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/agentrelay/agentrelay/internal/agentrelayctl"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	if err := agentrelayctl.NewDefaultCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
