package browser

import (
	"context"
	"sync"

	"chatshot/internal/pkg/logger"
)

// Pool caches reusable browser process handles. It bounds idle handles at
// maxPooled; acquisition beyond that launches fresh processes which are
// terminated on release instead of pooled. A handle is never lent to two
// concurrent holders.
type Pool struct {
	engine    Engine
	maxPooled int
	log       *logger.Logger

	mu     sync.Mutex
	idle   []Browser
	closed bool
}

// NewPool creates a browser pool backed by the given engine.
func NewPool(engine Engine, maxPooled int, log *logger.Logger) *Pool {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Pool{
		engine:    engine,
		maxPooled: maxPooled,
		log:       log.WithComponent("browser-pool"),
	}
}

// Acquire returns an idle pooled handle if one exists, else launches a new
// browser process.
func (p *Pool) Acquire(ctx context.Context) (Browser, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		b := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		p.log.Debug("reusing pooled browser", "idle", n-1)
		return b, nil
	}
	p.mu.Unlock()

	p.log.Debug("launching new browser")
	return p.engine.Launch(ctx)
}

// Release returns a handle to the idle set, or terminates it when the idle
// set is full or the pool has been drained.
func (p *Pool) Release(b Browser) {
	if b == nil {
		return
	}

	p.mu.Lock()
	if !p.closed && len(p.idle) < p.maxPooled {
		p.idle = append(p.idle, b)
		n := len(p.idle)
		p.mu.Unlock()
		p.log.Debug("browser returned to pool", "idle", n)
		return
	}
	p.mu.Unlock()

	p.log.Debug("pool full, closing browser")
	if err := b.Close(); err != nil {
		p.log.Warn("browser close failed", "error", err.Error())
	}
}

// Drain terminates every pooled handle and stops pooling. Handles released
// after Drain are closed immediately.
func (p *Pool) Drain() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	p.log.Info("draining browser pool", "idle", len(idle))
	for _, b := range idle {
		if err := b.Close(); err != nil {
			p.log.Warn("browser close failed during drain", "error", err.Error())
		}
	}
}

// IdleCount reports how many handles are currently pooled.
func (p *Pool) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// MaxPooled reports the idle-capacity cap.
func (p *Pool) MaxPooled() int {
	return p.maxPooled
}
