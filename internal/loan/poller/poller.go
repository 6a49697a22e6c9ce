// Package poller runs a refresh function on a fixed interval until stopped.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"staff-loans/internal/common/logger"
)

// Func is one refresh. Errors are logged and the next tick runs as usual,
// except ErrStop, which ends the poller.
type Func func(ctx context.Context) error

// ErrStop is returned by a Func to stop its own poller. Calling Stop from
// inside the Func would wait on itself.
var ErrStop = errors.New("poller stopped by refresh")

type Poller struct {
	name     string
	interval time.Duration
	fn       Func
	logger   logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func New(name string, interval time.Duration, fn Func, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   log.WithFields(map[string]interface{}{"component": "poller", "poller": name}),
	}
}

// Start runs fn immediately and then every interval. Calling Start on a
// running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(ctx, p.done)
}

// Stop cancels the loop and waits for an in-progress refresh to return. No
// refresh starts after Stop returns. It must not be called from the Func;
// return ErrStop there instead.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if p.tick(ctx) {
		p.finish(done)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tick(ctx) {
				p.finish(done)
				return
			}
		}
	}
}

// tick runs one refresh and reports whether it asked to stop.
func (p *Poller) tick(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	err := p.fn(ctx)
	switch {
	case errors.Is(err, ErrStop):
		p.logger.Debug("refresh requested stop", nil)
		return true
	case err != nil && ctx.Err() == nil:
		p.logger.Warn("refresh failed", map[string]interface{}{"error": err.Error()})
	}
	return false
}

// finish marks the run that owns done as stopped. A Stop racing with it
// finds running false and returns without waiting.
func (p *Poller) finish(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != done || !p.running {
		return
	}
	p.running = false
	p.cancel()
}
