package pool

import (
	"testing"
	"time"

	"github.com/agentrelay/agentrelay/internal/budget"
	"github.com/agentrelay/agentrelay/internal/client"
	"github.com/agentrelay/agentrelay/internal/options"
)

func newTestPool(maxActive, maxIdle int) *Pool {
	opts := options.NewPoolOptions()
	opts.MaxActive = maxActive
	opts.MaxIdle = maxIdle
	return New(opts, options.NewTransportOptions(), nil)
}

func TestAcquireReturnsMatchingIdleSlot(t *testing.T) {
	p := newTestPool(4, 4)
	want := &Slot{Client: client.New(options.NewTransportOptions(), budget.NewTracker()), Model: "opus"}
	p.idle = append(p.idle, want)

	got, err := p.Acquire(nil, "opus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected the idle slot to be reused")
	}
	if !got.InUse {
		t.Fatalf("expected the reused slot marked in use")
	}
	if len(p.idle) != 0 {
		t.Fatalf("expected the idle list drained of the reused slot")
	}
	if _, ok := p.active[got]; !ok {
		t.Fatalf("expected the reused slot tracked as active")
	}
}

func TestAcquireIgnoresIdleSlotWithDifferentModel(t *testing.T) {
	p := newTestPool(0, 4)
	other := &Slot{Client: client.New(options.NewTransportOptions(), budget.NewTracker()), Model: "haiku"}
	p.idle = append(p.idle, other)

	if _, err := p.Acquire(nil, "opus"); err == nil {
		t.Fatalf("expected pool-exhausted error when no idle slot matches the model and max-active is 0")
	}
}

func TestAcquireFailsWhenPoolExhausted(t *testing.T) {
	p := newTestPool(1, 4)
	p.active[&Slot{Model: "opus"}] = struct{}{}

	if _, err := p.Acquire(nil, "opus"); err == nil {
		t.Fatalf("expected pool-exhausted error at max-active")
	}
}

func TestReleaseParksSlotUnderIdleCapacity(t *testing.T) {
	p := newTestPool(4, 2)
	s := &Slot{Client: client.New(options.NewTransportOptions(), budget.NewTracker()), InUse: true}
	p.active[s] = struct{}{}

	p.Release(s)

	if s.InUse {
		t.Fatalf("expected released slot marked not in use")
	}
	if len(p.idle) != 1 || p.idle[0] != s {
		t.Fatalf("expected slot parked in the idle list")
	}
	if _, ok := p.active[s]; ok {
		t.Fatalf("expected slot removed from the active set")
	}
}

func TestReleaseClosesSlotAtIdleCapacity(t *testing.T) {
	p := newTestPool(4, 1)
	p.idle = append(p.idle, &Slot{Client: client.New(options.NewTransportOptions(), budget.NewTracker())})
	s := &Slot{Client: client.New(options.NewTransportOptions(), budget.NewTracker())}
	p.active[s] = struct{}{}

	p.Release(s)

	if len(p.idle) != 1 {
		t.Fatalf("expected idle list to stay at capacity, got %d", len(p.idle))
	}
}

func TestEvictOnceRemovesExpiredIdleSlots(t *testing.T) {
	p := newTestPool(4, 4)
	p.opts.IdleTimeout = time.Millisecond
	stale := &Slot{Client: client.New(options.NewTransportOptions(), budget.NewTracker()), CreatedAt: time.Now().Add(-time.Hour)}
	fresh := &Slot{Client: client.New(options.NewTransportOptions(), budget.NewTracker()), CreatedAt: time.Now()}
	p.idle = append(p.idle, stale, fresh)

	p.evictOnce()

	if len(p.idle) != 1 || p.idle[0] != fresh {
		t.Fatalf("expected only the fresh slot to remain, got %d slots", len(p.idle))
	}
}
