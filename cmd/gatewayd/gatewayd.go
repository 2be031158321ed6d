package main

import (
	"math/rand"
	"time"

	_ "go.uber.org/automaxprocs" // sets GOMAXPROCS from the cgroup CPU quota

	"github.com/agentrelay/agentrelay/internal/gateway"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	gateway.NewApp("gatewayd").Run()
}
