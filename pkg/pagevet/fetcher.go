package pagevet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/pagevet/pagevet/internal/browser"
	"github.com/pagevet/pagevet/internal/cache"
	"github.com/pagevet/pagevet/internal/extract"
	"github.com/pagevet/pagevet/internal/logger"
	"github.com/pagevet/pagevet/internal/navigate"
	"github.com/pagevet/pagevet/internal/page"
	"github.com/pagevet/pagevet/internal/ratelimit"
	"github.com/pagevet/pagevet/internal/refs"
	"github.com/pagevet/pagevet/internal/urlx"
)

// Fetcher drives the browser pool: rate limit, acquire a tab, navigate,
// classify and extract. One Fetcher serves any number of concurrent calls;
// the pool bounds actual parallelism.
type Fetcher struct {
	cfg     *Config
	pool    *browser.Pool
	nav     *navigate.Navigator
	limiter *ratelimit.Limiter
	store   *cache.Store
	log     *logger.Logger
}

// New launches a browser and returns a ready fetcher. Launch failures are
// fatal to the caller; nothing works without an engine.
func New(cfg *Config, log *logger.Logger) (*Fetcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := browser.NewPool(browser.Config{
		Limit:             cfg.Concurrency,
		Headless:          cfg.Headless,
		IgnoreHTTPSErrors: cfg.IgnoreHTTPSErrors,
		UserAgent:         cfg.UserAgent,
		ExtraHeaders:      cfg.ExtraHeaders,
	})
	if err != nil {
		return nil, err
	}
	return assemble(cfg, pool, log)
}

// newWithPool wires a fetcher around an existing pool. Used by tests to
// substitute a synthetic engine.
func newWithPool(cfg *Config, pool *browser.Pool, log *logger.Logger) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return assemble(cfg, pool, log)
}

func assemble(cfg *Config, pool *browser.Pool, log *logger.Logger) (*Fetcher, error) {
	if log == nil {
		log = logger.Global()
	}
	f := &Fetcher{
		cfg:     cfg,
		pool:    pool,
		nav:     navigate.New(cfg.Timeout, log),
		limiter: ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		log:     log.WithComponent("fetcher"),
	}
	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			pool.Shutdown()
			return nil, err
		}
		f.store = store
	}
	return f, nil
}

// Close shuts the browser down and releases the cache.
func (f *Fetcher) Close() error {
	if f.store != nil {
		_ = f.store.Close()
	}
	return f.pool.Shutdown()
}

// FetchOne fetches a single URL and returns its structured page. Failures
// come back as a Dead page carrying the reason in Alerts, never an error;
// a batch must not stop because one link is down.
func (f *Fetcher) FetchOne(ctx context.Context, rawURL string) *Page {
	if err := f.waitLimit(ctx, rawURL); err != nil {
		return deadPage(rawURL, err.Error())
	}

	h, err := f.pool.AcquirePage(ctx)
	if err != nil {
		return deadPage(rawURL, err.Error())
	}
	defer h.Release()

	out := f.nav.GotoWithRetry(ctx, h, rawURL, f.cfg.Retries)
	if out.Failed() {
		f.log.FetchEvent(rawURL, page.Dead.String(), 0, out.Elapsed)
		return deadPage(rawURL, out.ErrMsg)
	}

	html, err := h.HTML()
	if err != nil {
		f.log.FetchEvent(rawURL, page.Dead.String(), out.StatusGuess, out.Elapsed)
		return deadPage(rawURL, "Failed to read page content: "+err.Error())
	}

	status := navigate.Classify(rawURL, out, html)
	f.log.FetchEvent(rawURL, status.String(), out.StatusGuess, out.Elapsed)

	switch status {
	case page.Dead:
		p := deadPage(rawURL, fmt.Sprintf("HTTP %d", out.StatusGuess))
		p.Title = out.Title
		return p
	case page.Redirect:
		return &Page{
			URL:    rawURL,
			Status: page.Redirect,
			Title:  out.Title,
			Alerts: []string{"Redirected to: " + out.FinalURL},
		}
	}

	p, err := f.extractPage(html, rawURL)
	if err != nil {
		return deadPage(rawURL, "Failed to parse page content: "+err.Error())
	}
	p.Status = status
	if p.Title == "" {
		p.Title = out.Title
	}
	switch status {
	case page.Paywall:
		p.Alerts = append(p.Alerts, "Paywall detected")
	case page.Login:
		p.Alerts = append(p.Alerts, "Login required")
	}
	return p
}

func (f *Fetcher) extractPage(html, rawURL string) (*Page, error) {
	if f.cfg.RawContent {
		return extract.FromHTMLRaw(html, rawURL)
	}
	return extract.FromHTML(html, rawURL)
}

// FetchAll fetches every URL concurrently. Results align with the input
// slice by position.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []*Page {
	results := make([]*Page, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = f.FetchOne(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

// CheckOne performs a liveness check: navigate and classify, no content
// extraction. Cached results younger than the configured TTL short-circuit
// the browser.
func (f *Fetcher) CheckOne(ctx context.Context, rawURL string) LinkResult {
	if f.store != nil {
		if data, ok := f.store.Get(rawURL, f.cfg.Cache.TTL); ok {
			var res LinkResult
			if err := json.Unmarshal(data, &res); err == nil {
				return res
			}
		}
	}

	res := f.checkLive(ctx, rawURL)

	if f.store != nil {
		if data, err := json.Marshal(res); err == nil {
			if err := f.store.Put(rawURL, data); err != nil {
				f.log.WithURL(rawURL).WithError(err).Warn("failed to cache result")
			}
		}
	}
	return res
}

func (f *Fetcher) checkLive(ctx context.Context, rawURL string) LinkResult {
	res := LinkResult{URL: rawURL, Status: page.Dead}

	if err := f.waitLimit(ctx, rawURL); err != nil {
		res.Error = err.Error()
		return res
	}
	h, err := f.pool.AcquirePage(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer h.Release()

	out := f.nav.GotoWithRetry(ctx, h, rawURL, f.cfg.Retries)
	if out.Failed() {
		res.Error = out.ErrMsg
		f.log.FetchEvent(rawURL, res.Status.String(), 0, out.Elapsed)
		return res
	}

	html, err := h.HTML()
	if err != nil {
		html = ""
	}
	res.Status = navigate.Classify(rawURL, out, html)
	switch res.Status {
	case page.Dead:
		res.Error = fmt.Sprintf("HTTP %d", out.StatusGuess)
	case page.Redirect:
		res.RedirectTo = out.FinalURL
	}
	f.log.FetchEvent(rawURL, res.Status.String(), out.StatusGuess, out.Elapsed)
	return res
}

// CheckAll checks every URL concurrently and aggregates the outcomes.
// Results align with the input slice by position.
func (f *Fetcher) CheckAll(ctx context.Context, urls []string) *LinkReport {
	report := &LinkReport{Results: make([]LinkResult, len(urls))}

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			report.Results[i] = f.CheckOne(ctx, u)
		}(i, u)
	}
	wg.Wait()

	for _, r := range report.Results {
		if r.Status == page.Ok {
			report.Ok++
		} else {
			report.Failed++
		}
	}
	return report
}

// VerifyAll re-checks the manifest's references, restricted to the given
// categories when any are named, and stamps each with its fresh status.
// The manifest is updated in place; saving it is the caller's business.
func (f *Fetcher) VerifyAll(ctx context.Context, file *refs.File, categories []string) VerifySummary {
	idx := file.ByCategory(categories)
	summary := VerifySummary{
		Total:   len(file.References),
		Skipped: len(file.References) - len(idx),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, i := range idx {
		wg.Add(1)
		go func(ref *refs.Reference) {
			defer wg.Done()
			res := f.CheckOne(ctx, ref.URL)

			notes := ""
			switch res.Status {
			case page.Dead:
				notes = res.Error
			case page.Redirect:
				notes = "Redirected to: " + res.RedirectTo
			}
			ref.MarkVerified(res.Status, notes)

			mu.Lock()
			summary.Verified++
			switch res.Status {
			case page.Ok:
				summary.Ok++
			case page.Dead:
				summary.Dead++
			case page.Redirect:
				summary.Redirect++
			case page.Paywall:
				summary.Paywall++
			case page.Login:
				summary.Login++
			}
			mu.Unlock()
		}(&file.References[i])
	}
	wg.Wait()

	file.Meta.LastVerified = time.Now().UTC().Format(time.RFC3339)
	return summary
}

// waitLimit applies the per-host rate limit before a fetch.
func (f *Fetcher) waitLimit(ctx context.Context, rawURL string) error {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return f.limiter.WaitHost(ctx, urlx.NormalizeHost(u.Host))
	}
	return f.limiter.Wait(ctx)
}

func deadPage(url, reason string) *Page {
	p := &Page{URL: url, Status: page.Dead}
	if reason != "" {
		p.Alerts = []string{reason}
	}
	return p
}
