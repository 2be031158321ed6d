package transport

import (
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/agentrelay/agentrelay/pkg/logger"
)

// Teardown stage deadlines. Stages run in order; each has a deadline; on
// expiry the next stage fires. Platforms without signal semantics skip
// straight from stage 1 to stage 4.
const (
	stageCloseStdinDeadline  = 200 * time.Millisecond
	stageInterruptDeadline   = 200 * time.Millisecond
	stageTerminateDeadline   = 500 * time.Millisecond
)

var disconnectOnce sync.Once

// Disconnect runs the staged, time-bounded teardown: close stdin, then
// (POSIX only) SIGINT, then SIGTERM, then a non-negotiable force-kill.
// Idempotent; never hangs.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	close(t.writeDone)
	close(t.writeCh)

	exited := make(chan struct{})
	go func() {
		_ = t.cmd.Wait()
		close(exited)
	}()

	// Stage 1: close stdin.
	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	if waitFor(exited, stageCloseStdinDeadline) {
		return
	}

	if runtime.GOOS == "windows" || t.cmd.Process == nil {
		t.forceKill()
		<-exited
		return
	}

	// Stage 2: SIGINT.
	if err := t.cmd.Process.Signal(syscall.SIGINT); err != nil {
		logger.WarnX("transport", "SIGINT failed: %v", err)
	}
	if waitFor(exited, stageInterruptDeadline) {
		return
	}

	// Stage 3: SIGTERM.
	if err := t.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		logger.WarnX("transport", "SIGTERM failed: %v", err)
	}
	if waitFor(exited, stageTerminateDeadline) {
		return
	}

	// Stage 4: force-kill, non-negotiable.
	t.forceKill()
	<-exited
}

func (t *Transport) forceKill() {
	if t.cmd.Process == nil {
		return
	}
	if err := t.cmd.Process.Kill(); err != nil {
		logger.WarnX("transport", "kill failed: %v", err)
	}
}

func waitFor(done <-chan struct{}, d time.Duration) bool {
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
