// Package pool maintains a set of prewarmed agent sessions, hiding
// subprocess spawn latency from gateway requests.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/agentrelay/agentrelay/internal/budget"
	"github.com/agentrelay/agentrelay/internal/client"
	"github.com/agentrelay/agentrelay/internal/options"
	"github.com/agentrelay/agentrelay/internal/runtime"
	"github.com/agentrelay/agentrelay/pkg/errorx"
	"github.com/agentrelay/agentrelay/pkg/logger"
)

// Slot holds one agent session handle, its model tag, creation time, and
// in-use flag.
type Slot struct {
	Client    *client.Client
	Model     string
	CreatedAt time.Time
	InUse     bool
}

// Pool maintains idle and active slot lists. Bookkeeping is guarded by a
// short critical section; spawn and close happen outside it so a slow
// spawn never serializes other acquires.
type Pool struct {
	opts          *options.PoolOptions
	transportOpts *options.TransportOptions
	permissionFn  runtime.ToolPermissionFunc

	mu     sync.Mutex
	idle   []*Slot
	active map[*Slot]struct{}

	stopCh chan struct{}
}

// New builds a pool; call Start to launch its background refill/eviction
// loops.
func New(opts *options.PoolOptions, transportOpts *options.TransportOptions, permissionFn runtime.ToolPermissionFunc) *Pool {
	return &Pool{
		opts:          opts,
		transportOpts: transportOpts,
		permissionFn:  permissionFn,
		active:        make(map[*Slot]struct{}),
		stopCh:        make(chan struct{}),
	}
}

// Start launches the background refill and eviction loops.
func (p *Pool) Start() {
	go p.refillLoop()
	go p.evictLoop()
}

// Stop halts the background loops. Does not close outstanding sessions.
func (p *Pool) Stop() { close(p.stopCh) }

// Acquire returns an idle slot matching model if one exists; otherwise,
// if active count is below max_active, spawns a new session; otherwise
// returns a pool-exhausted error.
func (p *Pool) Acquire(ctx context.Context, model string) (*Slot, error) {
	p.mu.Lock()
	for i, s := range p.idle {
		if s.Model == model {
			p.idle = append(p.idle[:i], p.idle[i+1:]...)
			s.InUse = true
			p.active[s] = struct{}{}
			p.mu.Unlock()
			return s, nil
		}
	}
	if len(p.active) >= p.opts.MaxActive {
		p.mu.Unlock()
		return nil, errorx.WithCode(errorx.CodePoolExhausted, "pool exhausted: %d active sessions", len(p.active))
	}
	// Reserve the active slot before releasing the lock so concurrent
	// acquires can't all pass the admission check for one spare slot.
	placeholder := &Slot{Model: model, InUse: true}
	p.active[placeholder] = struct{}{}
	p.mu.Unlock()

	c := client.New(p.transportOpts, budget.NewTracker())
	if err := c.Connect(ctx, model, "", p.permissionFn, ""); err != nil {
		p.mu.Lock()
		delete(p.active, placeholder)
		p.mu.Unlock()
		return nil, err
	}

	placeholder.Client = c
	placeholder.CreatedAt = time.Now()
	return placeholder, nil
}

// Stats reports the pool's current idle/active occupancy against its
// configured bounds, for the admin CLI's /stats view.
type Stats struct {
	Idle      int
	Active    int
	MaxIdle   int
	MaxActive int
}

// Stats returns a snapshot of the pool's occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Idle:      len(p.idle),
		Active:    len(p.active),
		MaxIdle:   p.opts.MaxIdle,
		MaxActive: p.opts.MaxActive,
	}
}

// Release returns a slot to the idle list if idle count is below
// max_idle; otherwise the session is closed. It takes the slot itself,
// which already carries the session and its model.
func (p *Pool) Release(slot *Slot) {
	p.mu.Lock()
	delete(p.active, slot)
	if len(p.idle) < p.opts.MaxIdle {
		slot.InUse = false
		p.idle = append(p.idle, slot)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	slot.Client.Disconnect()
}

func (p *Pool) refillLoop() {
	ticker := time.NewTicker(p.opts.RefillEvery)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.refillOnce()
		}
	}
}

func (p *Pool) refillOnce() {
	p.mu.Lock()
	deficit := p.opts.MinIdle - len(p.idle)
	p.mu.Unlock()

	for i := 0; i < deficit; i++ {
		c := client.New(p.transportOpts, budget.NewTracker())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := c.Connect(ctx, p.transportOpts.DefaultModel, "", p.permissionFn, "")
		cancel()
		if err != nil {
			logger.WarnX("pool", "refill spawn failed: %v", err)
			return
		}
		slot := &Slot{Client: c, Model: p.transportOpts.DefaultModel, CreatedAt: time.Now()}
		p.mu.Lock()
		p.idle = append(p.idle, slot)
		p.mu.Unlock()
	}
}

func (p *Pool) evictLoop() {
	ticker := time.NewTicker(p.opts.EvictEvery)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.evictOnce()
		}
	}
}

func (p *Pool) evictOnce() {
	now := time.Now()
	var expired []*Slot

	p.mu.Lock()
	kept := p.idle[:0]
	for _, s := range p.idle {
		if now.Sub(s.CreatedAt) > p.opts.IdleTimeout {
			expired = append(expired, s)
		} else {
			kept = append(kept, s)
		}
	}
	p.idle = kept
	p.mu.Unlock()

	for _, s := range expired {
		s.Client.Disconnect()
	}
}
