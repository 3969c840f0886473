// Package navigate drives a page handle through navigate/timeout/retry and
// classifies the result.
package navigate

import (
	"context"
	"strings"
	"time"

	"github.com/pagevet/pagevet/internal/browser"
	"github.com/pagevet/pagevet/internal/logger"
)

// ErrorKind is a coarse category for navigation failures.
type ErrorKind int

const (
	// KindNone means the navigation did not fail.
	KindNone ErrorKind = iota
	// KindDNSFailed means the hostname did not resolve.
	KindDNSFailed
	// KindConnectionRefused means the host refused the connection.
	KindConnectionRefused
	// KindTimeout means the navigation deadline elapsed.
	KindTimeout
	// KindSSLError means certificate or TLS negotiation failed.
	KindSSLError
	// KindNetworkError is any other network-level failure.
	KindNetworkError
)

// String returns the diagnostic name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindDNSFailed:
		return "dns_failed"
	case KindConnectionRefused:
		return "connection_refused"
	case KindTimeout:
		return "timeout"
	case KindSSLError:
		return "ssl_error"
	case KindNetworkError:
		return "network_error"
	default:
		return "none"
	}
}

// Outcome is the immutable result of one Goto call.
type Outcome struct {
	// StatusGuess is inferred from the page title, not a true protocol
	// status. 0 means the navigation failed entirely.
	StatusGuess uint16
	Title       string
	FinalURL    string
	ErrKind     ErrorKind
	ErrMsg      string
	Elapsed     time.Duration
}

// Failed reports whether the navigation produced no page at all.
func (o Outcome) Failed() bool {
	return o.StatusGuess == 0
}

// errorRules maps engine error substrings to coarse kinds, checked in
// order, first match wins.
var errorRules = []struct {
	substr string
	kind   ErrorKind
}{
	{"ERR_NAME_NOT_RESOLVED", KindDNSFailed},
	{"ERR_CONNECTION_REFUSED", KindConnectionRefused},
	{"ERR_CONNECTION_TIMED_OUT", KindTimeout},
	{"context deadline exceeded", KindTimeout},
	{"ERR_CERT", KindSSLError},
	{"SSL", KindSSLError},
}

// classifyError maps an engine error message to an ErrorKind.
func classifyError(msg string) ErrorKind {
	for _, rule := range errorRules {
		if strings.Contains(msg, rule.substr) {
			return rule.kind
		}
	}
	return KindNetworkError
}

// statusFromTitle infers a status code from an error-page title. No true
// protocol status is available from the engine, so this is a fallback
// heuristic, not ground truth.
func statusFromTitle(title string) uint16 {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "404") || strings.Contains(t, "not found"):
		return 404
	case strings.Contains(t, "403") || strings.Contains(t, "forbidden") ||
		strings.Contains(t, "access denied"):
		return 403
	case strings.Contains(t, "500") || strings.Contains(t, "internal server error"):
		return 500
	default:
		return 200
	}
}

// Navigator issues timeout-bounded navigations.
type Navigator struct {
	timeout time.Duration
	backoff time.Duration
	log     *logger.Logger
}

// New creates a navigator with a per-navigation timeout.
func New(timeout time.Duration, log *logger.Logger) *Navigator {
	if log == nil {
		log = logger.Global()
	}
	return &Navigator{
		timeout: timeout,
		backoff: RetryBackoff,
		log:     log.WithComponent("navigate"),
	}
}

// Goto navigates the handle to url bounded by the navigator's timeout.
// It always returns an outcome; failures are encoded, never raised.
func (n *Navigator) Goto(ctx context.Context, h *browser.PageHandle, url string) Outcome {
	start := time.Now()

	navCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err := h.Navigate(navCtx, url)
	elapsed := time.Since(start)

	if err != nil {
		kind := classifyError(err.Error())
		if navCtx.Err() == context.DeadlineExceeded {
			kind = KindTimeout
		}
		out := Outcome{
			ErrKind: kind,
			ErrMsg:  err.Error(),
			Elapsed: elapsed,
		}
		if kind == KindTimeout {
			out.ErrMsg = "Navigation timeout"
		}
		n.log.Debugf("navigation failed: %s (%s)", url, kind)
		return out
	}

	title, finalURL, infoErr := h.Info()
	if infoErr != nil {
		// The page loaded but the target went away before we could
		// inspect it. Treat like a network failure.
		return Outcome{
			ErrKind: KindNetworkError,
			ErrMsg:  infoErr.Error(),
			Elapsed: elapsed,
		}
	}

	return Outcome{
		StatusGuess: statusFromTitle(title),
		Title:       title,
		FinalURL:    finalURL,
		Elapsed:     elapsed,
	}
}

// RetryBackoff is the fixed wait before the single retry of a failed
// navigation.
const RetryBackoff = time.Second

// GotoWithRetry navigates and, if the navigation failed outright, waits
// one second and retries up to retries more times.
func (n *Navigator) GotoWithRetry(ctx context.Context, h *browser.PageHandle, url string, retries int) Outcome {
	out := n.Goto(ctx, h, url)
	for attempt := 0; attempt < retries && out.Failed(); attempt++ {
		select {
		case <-time.After(n.backoff):
		case <-ctx.Done():
			return out
		}
		n.log.Debugf("retrying %s (attempt %d)", url, attempt+2)
		out = n.Goto(ctx, h, url)
	}
	return out
}
