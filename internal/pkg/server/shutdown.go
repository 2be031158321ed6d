package server

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/agentrelay/agentrelay/pkg/logger"
)

// ShutdownCallback is invoked once, in registration order, when a shutdown
// manager reports a trigger. name identifies the manager that triggered it.
type ShutdownCallback interface {
	OnShutdown(name string) error
}

// Func adapts a plain function to ShutdownCallback.
type Func func(name string) error

// OnShutdown implements ShutdownCallback.
func (f Func) OnShutdown(name string) error { return f(name) }

// ShutdownManager reports a shutdown trigger (e.g. an OS signal) on ch.
type ShutdownManager interface {
	Name() string
	Start(ch chan<- string) error
}

// GracefulShutdown runs registered managers and, on the first trigger,
// fires every callback once before the process is expected to exit.
type GracefulShutdown struct {
	managers  []ShutdownManager
	callbacks []ShutdownCallback

	mu   sync.Mutex
	done bool
}

// New builds an empty GracefulShutdown coordinator.
func New() *GracefulShutdown {
	return &GracefulShutdown{}
}

// AddShutdownManager registers a trigger source.
func (g *GracefulShutdown) AddShutdownManager(m ShutdownManager) {
	g.managers = append(g.managers, m)
}

// AddShutdownCallback registers a callback to run on trigger.
func (g *GracefulShutdown) AddShutdownCallback(cb ShutdownCallback) {
	g.callbacks = append(g.callbacks, cb)
}

// Start launches all managers and, on the first received trigger, runs
// every callback in registration order. Subsequent triggers are ignored.
func (g *GracefulShutdown) Start() error {
	ch := make(chan string, 1)
	for _, m := range g.managers {
		if err := m.Start(ch); err != nil {
			return err
		}
	}

	go func() {
		name := <-ch
		g.mu.Lock()
		if g.done {
			g.mu.Unlock()
			return
		}
		g.done = true
		g.mu.Unlock()

		logger.Info("shutdown triggered by %s", name)
		for _, cb := range g.callbacks {
			if err := cb.OnShutdown(name); err != nil {
				logger.Warn("shutdown callback error: %v", err)
			}
		}
	}()

	return nil
}

// PosixSignalManager triggers shutdown on SIGINT/SIGTERM. On non-POSIX
// targets the same signal constants still compile via the os/signal
// portability shims, so no build tags are needed here.
type PosixSignalManager struct {
	sigs []os.Signal
}

// NewPosixSignalManager builds a manager listening for SIGINT and SIGTERM.
func NewPosixSignalManager(sigs ...os.Signal) *PosixSignalManager {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &PosixSignalManager{sigs: sigs}
}

// Name implements ShutdownManager.
func (m *PosixSignalManager) Name() string { return "posix-signal" }

// Start begins listening for the configured signals in a background
// goroutine, forwarding the manager's name to ch on the first one.
func (m *PosixSignalManager) Start(ch chan<- string) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, m.sigs...)
	go func() {
		<-sigCh
		ch <- m.Name()
	}()
	return nil
}
