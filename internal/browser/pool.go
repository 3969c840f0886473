package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/pagevet/pagevet/internal/errors"
)

// MaxLimit is the hard ceiling on concurrently open tabs.
const MaxLimit = 20

// DefaultUserAgent is a realistic desktop Chrome user agent. Sites that
// block obvious automation (403/999) generally accept it.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config defines browser pool configuration.
type Config struct {
	// Limit bounds concurrently open tabs, 1..20.
	Limit int `json:"limit" yaml:"limit"`

	Headless          bool              `json:"headless" yaml:"headless"`
	IgnoreHTTPSErrors bool              `json:"ignore_https_errors" yaml:"ignore_https_errors"`
	UserAgent         string            `json:"user_agent" yaml:"user_agent"`
	ExtraHeaders      map[string]string `json:"extra_headers" yaml:"extra_headers"`
}

// DefaultConfig returns default browser configuration.
func DefaultConfig() Config {
	return Config{
		Limit:             4,
		Headless:          true,
		IgnoreHTTPSErrors: true,
		UserAgent:         DefaultUserAgent,
	}
}

// Pool owns one shared browser engine and bounds concurrently open tabs
// with a counting permit. Never more than Limit page handles are
// outstanding at once.
type Pool struct {
	engine Engine
	cfg    Config
	sem    chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewPool launches the browser engine and returns a pool. It fails with a
// launch error if the browser process cannot start.
func NewPool(cfg Config) (*Pool, error) {
	if err := validateLimit(cfg.Limit); err != nil {
		return nil, err
	}
	engine, err := launchEngine(cfg)
	if err != nil {
		return nil, errors.NewLaunchError(err)
	}
	return NewPoolWithEngine(engine, cfg)
}

// NewPoolWithEngine builds a pool over an already-running engine. Used by
// tests to inject synthetic engines.
func NewPoolWithEngine(engine Engine, cfg Config) (*Pool, error) {
	if err := validateLimit(cfg.Limit); err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	p := &Pool{
		engine: engine,
		cfg:    cfg,
		sem:    make(chan struct{}, cfg.Limit),
	}
	for i := 0; i < cfg.Limit; i++ {
		p.sem <- struct{}{}
	}
	return p, nil
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func validateLimit(limit int) error {
	if limit < 1 || limit > MaxLimit {
		return fmt.Errorf("pool limit must be in 1..%d, got %d", MaxLimit, limit)
	}
	return nil
}

// AcquirePage blocks until a capacity slot is free, opens a tab with the
// pool's user agent, and returns a handle owning the slot. If tab creation
// fails after the slot is taken, the slot is returned before the error
// propagates.
func (p *Pool) AcquirePage(ctx context.Context) (*PageHandle, error) {
	if p.isClosed() {
		return nil, fmt.Errorf("pool is closed")
	}

	select {
	case <-p.sem:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Shutdown may have started while we were waiting for a slot.
	if p.isClosed() {
		p.sem <- struct{}{}
		return nil, fmt.Errorf("pool is closed")
	}

	pg, err := p.engine.NewPage()
	if err != nil {
		p.sem <- struct{}{}
		return nil, errors.NewAcquireError(err)
	}

	// User agent and header overrides are best effort, matching the
	// behavior of a tab opened without them.
	_ = pg.SetUserAgent(p.cfg.UserAgent)
	if len(p.cfg.ExtraHeaders) > 0 {
		_ = pg.SetExtraHeaders(p.cfg.ExtraHeaders)
	}

	return &PageHandle{page: pg, pool: p}, nil
}

// Limit returns the configured tab ceiling.
func (p *Pool) Limit() int {
	return cap(p.sem)
}

// Available returns the number of free slots.
func (p *Pool) Available() int {
	return len(p.sem)
}

// Shutdown waits for all handles to be released, then closes the browser
// engine. Safe to call more than once.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	// Reclaim every permit so no tab is still open when the engine goes.
	for i := 0; i < cap(p.sem); i++ {
		<-p.sem
	}
	return p.engine.Close()
}

// PageHandle exclusively owns one open tab plus one pool-capacity permit.
// It is released exactly once; extra Release calls are no-ops.
type PageHandle struct {
	page Page
	pool *Pool
	once sync.Once
}

// Navigate loads the URL in this tab, bounded by ctx.
func (h *PageHandle) Navigate(ctx context.Context, url string) error {
	return h.page.Navigate(ctx, url)
}

// Info returns the tab's current title and URL.
func (h *PageHandle) Info() (title, url string, err error) {
	return h.page.Info()
}

// HTML returns the serialized DOM of the current document.
func (h *PageHandle) HTML() (string, error) {
	return h.page.HTML()
}

// Release closes the tab and returns the capacity slot to the pool.
func (h *PageHandle) Release() {
	h.once.Do(func() {
		_ = h.page.Close()
		h.pool.sem <- struct{}{}
	})
}
