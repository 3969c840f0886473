// Package browser manages a pool of headless Chrome tabs via Rod.
package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// Engine abstracts the remote-controlled browser process. The production
// implementation launches one Chrome process; tests inject synthetic
// engines, so several pools can coexist without shared globals.
type Engine interface {
	// NewPage opens a fresh tab.
	NewPage() (Page, error)
	// Close shuts the browser process down.
	Close() error
}

// Page is one open browser tab.
type Page interface {
	// Navigate loads the URL and waits for the load event, bounded by ctx.
	Navigate(ctx context.Context, url string) error
	// Info returns the current title and URL (post-redirect).
	Info() (title, url string, err error)
	// HTML returns the serialized DOM of the current document.
	HTML() (string, error)
	// SetUserAgent overrides the tab's user-agent header.
	SetUserAgent(ua string) error
	// SetExtraHeaders attaches headers to every request from this tab.
	SetExtraHeaders(headers map[string]string) error
	// Close closes the tab.
	Close() error
}

type rodEngine struct {
	browser *rod.Browser
}

// launchEngine starts one headless Chrome process and connects to it.
func launchEngine(cfg Config) (*rodEngine, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-first-run")

	if cfg.IgnoreHTTPSErrors {
		l = l.Set("ignore-certificate-errors", "true")
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	// Drain the protocol event stream so its buffer never backs up.
	// The channel closes when the browser connection closes.
	go func() {
		for range b.Event() {
		}
	}()

	return &rodEngine{browser: b}, nil
}

func (e *rodEngine) NewPage() (Page, error) {
	pg, err := e.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &rodPage{page: pg}, nil
}

func (e *rodEngine) Close() error {
	return e.browser.Close()
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) Info() (string, string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", "", err
	}
	return info.Title, info.URL, nil
}

func (p *rodPage) HTML() (string, error) {
	return p.page.HTML()
}

func (p *rodPage) SetUserAgent(ua string) error {
	return proto.NetworkSetUserAgentOverride{UserAgent: ua}.Call(p.page)
}

func (p *rodPage) SetExtraHeaders(headers map[string]string) error {
	networkHeaders := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		networkHeaders[k] = gson.New(v)
	}
	return proto.NetworkSetExtraHTTPHeaders{Headers: networkHeaders}.Call(p.page)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
