// Package enginepool implements the bounded engine pool described in
// spec.md §4.2 (C2): lifecycle of up to M UCI engine handles over one
// engine binary, FIFO-fair acquisition/release, and a periodic idle
// reaper. Grounded on the teacher's channel-of-handles EnginePool,
// generalized with FIFO waiter fairness and zap logging in the style of
// other_examples/8ffff56c_Tecu23-eng-server__pkg-engine-pool.go.
package enginepool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shoxrux/bughouse-orchestrator/internal/orcherr"
	"github.com/shoxrux/bughouse-orchestrator/internal/uci"
)

// HandleState is the lifecycle state of one pooled engine handle
// (spec.md §3: "available, busy, or reaping").
type HandleState int

const (
	StateAvailable HandleState = iota
	StateBusy
	StateReaping
)

// Handle is one owned engine process, borrowed exclusively while in use.
type Handle struct {
	ID        string
	Transport *uci.Transport

	mu         sync.Mutex
	state      HandleState
	lastUsedAt time.Time
}

func (h *Handle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) LastUsedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastUsedAt
}

// Spawner creates a fresh Transport on demand; factored out so tests can
// substitute a fake engine process.
type Spawner func(name string) (*uci.Transport, error)

// Pool bounds up to Capacity engine handles over one engine binary path.
// Acquire blocks with FIFO fairness when the pool is saturated; a
// non-blocking variant is available via TryAcquire. Invariant: a handle
// is in exactly one of {available, busy}; total live handles never
// exceeds Capacity (spec.md §4.2).
type Pool struct {
	logger   *zap.Logger
	spawn    Spawner
	capacity int
	idleTTL  time.Duration
	warmFloor int

	mu        sync.Mutex
	handles   map[string]*Handle
	available []*Handle
	waiters   []chan acquireResult

	reaperStop chan struct{}
	reaperDone chan struct{}
	shutdown   bool
}

type acquireResult struct {
	handle *Handle
	err    error
}

// Config bundles the tunables from spec.md §4.2.
type Config struct {
	Capacity      int
	IdleTTL       time.Duration // default 10m
	ReapInterval  time.Duration // default 5m
	WarmFloor     int           // minimum idle engines retained by the reaper
}

// New creates a pool that will lazily spawn up to cfg.Capacity engines via
// spawn. The reaper goroutine is started immediately.
func New(cfg Config, spawn Spawner, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = 5 * time.Minute
	}
	p := &Pool{
		logger:     logger,
		spawn:      spawn,
		capacity:   cfg.Capacity,
		idleTTL:    cfg.IdleTTL,
		warmFloor:  cfg.WarmFloor,
		handles:    make(map[string]*Handle),
		reaperStop: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
	go p.reapLoop(cfg.ReapInterval)
	return p
}

// Acquire returns an available handle, creating a new one if capacity
// allows, otherwise blocking until a release occurs (FIFO fairness).
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return nil, orcherr.New(orcherr.KindPoolExhausted, "pool is shut down")
	}

	if h := p.popAvailableLocked(); h != nil {
		p.mu.Unlock()
		return h, nil
	}
	if len(p.handles) < p.capacity {
		h, err := p.spawnHandleLocked()
		p.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	wait := make(chan acquireResult, 1)
	p.waiters = append(p.waiters, wait)
	p.mu.Unlock()

	select {
	case res := <-wait:
		return res.handle, res.err
	case <-ctx.Done():
		p.removeWaiter(wait)
		return nil, orcherr.Wrap(orcherr.KindPoolExhausted, "acquire canceled", ctx.Err())
	}
}

// TryAcquire is the non-blocking acquire variant: it fails with
// KindPoolExhausted immediately instead of enqueuing (spec.md §4.2).
func (p *Pool) TryAcquire() (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shutdown {
		return nil, orcherr.New(orcherr.KindPoolExhausted, "pool is shut down")
	}
	if h := p.popAvailableLocked(); h != nil {
		return h, nil
	}
	if len(p.handles) < p.capacity {
		return p.spawnHandleLocked()
	}
	return nil, orcherr.New(orcherr.KindPoolExhausted, "no engines available")
}

func (p *Pool) popAvailableLocked() *Handle {
	for len(p.available) > 0 {
		h := p.available[0]
		p.available = p.available[1:]
		h.mu.Lock()
		h.state = StateBusy
		h.mu.Unlock()
		return h
	}
	return nil
}

func (p *Pool) spawnHandleLocked() (*Handle, error) {
	id := uuid.NewString()
	name := fmt.Sprintf("engine-%s", id[:8])
	t, err := p.spawn(name)
	if err != nil {
		return nil, orcherr.Wrap(orcherr.KindTransportFailure, "spawn engine", err)
	}
	h := &Handle{ID: id, Transport: t, state: StateBusy, lastUsedAt: time.Now()}
	p.handles[id] = h
	p.logger.Info("engine spawned", zap.String("handle_id", id))
	return h, nil
}

// Release returns a handle to the pool. If a waiter is queued, the
// engine is handed directly to the head of the queue (spec.md §4.2).
// If the handle's transport has died, it is retired instead of returned
// to the available set (spec.md §4.2 invariant).
func (p *Pool) Release(h *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h.Transport.Dead() {
		p.retireLocked(h, fmt.Errorf("transport dead on release"))
		return
	}

	h.mu.Lock()
	h.state = StateAvailable
	h.lastUsedAt = time.Now()
	h.mu.Unlock()

	for len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		h.mu.Lock()
		h.state = StateBusy
		h.mu.Unlock()
		w <- acquireResult{handle: h}
		return
	}

	p.available = append(p.available, h)
}

// Retire removes a handle from the pool permanently (e.g. after a
// TransportFailure observed by the caller mid-request), per spec.md §4.2:
// "on any pool operation error, the engine is retired, not returned to
// available."
func (p *Pool) Retire(h *Handle, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retireLocked(h, cause)
}

func (p *Pool) retireLocked(h *Handle, cause error) {
	h.mu.Lock()
	h.state = StateReaping
	h.mu.Unlock()
	delete(p.handles, h.ID)
	p.logger.Warn("engine retired", zap.String("handle_id", h.ID), zap.Error(cause))
	_ = h.Transport.Shutdown(2 * time.Second)
}

func (p *Pool) removeWaiter(target chan acquireResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == target {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

// reapLoop periodically shuts down available engines idle beyond idleTTL,
// retaining at least warmFloor available engines (spec.md §4.2).
func (p *Pool) reapLoop(interval time.Duration) {
	defer close(p.reaperDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.reapOnce()
		case <-p.reaperStop:
			return
		}
	}
}

func (p *Pool) reapOnce() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	kept := p.available[:0:0]
	for _, h := range p.available {
		if len(kept) < p.warmFloor || now.Sub(h.LastUsedAt()) < p.idleTTL {
			kept = append(kept, h)
			continue
		}
		delete(p.handles, h.ID)
		p.logger.Info("reaping idle engine", zap.String("handle_id", h.ID))
		_ = h.Transport.Shutdown(2 * time.Second)
	}
	p.available = kept
}

// Shutdown cancels the reaper, shuts down every engine (available and
// in-use), and drains the waiter queue with an error (spec.md §4.2).
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	p.shutdown = true
	waiters := p.waiters
	p.waiters = nil
	handles := make([]*Handle, 0, len(p.handles))
	for _, h := range p.handles {
		handles = append(handles, h)
	}
	p.handles = make(map[string]*Handle)
	p.available = nil
	p.mu.Unlock()

	close(p.reaperStop)
	<-p.reaperDone

	for _, w := range waiters {
		w <- acquireResult{err: orcherr.New(orcherr.KindPoolExhausted, "pool shut down")}
	}
	for _, h := range handles {
		_ = h.Transport.Shutdown(2 * time.Second)
	}
	p.logger.Info("pool shut down", zap.Int("engines_closed", len(handles)))
}

// Len reports the number of live handles (available + busy), for tests
// and metrics.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}
