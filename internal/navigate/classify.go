package navigate

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagevet/pagevet/internal/page"
	"github.com/pagevet/pagevet/internal/urlx"
)

// GateRules is an ordered heuristic table for detecting a content gate:
// lowercase phrases matched against the page HTML, then CSS selectors
// matched against the DOM. The tables are package variables so callers can
// extend them without touching classification logic.
type GateRules struct {
	Phrases   []string
	Selectors []string
}

// PaywallRules detects subscription gates. Checked before LoginRules.
var PaywallRules = GateRules{
	Phrases: []string{
		"subscribe to continue",
		"subscription required",
		"premium content",
		"paywall",
		"member-only",
		"members only",
		"unlock this article",
		"purchase to read",
		"buy now to read",
		"paid subscribers",
	},
	Selectors: []string{
		"[class*='paywall']",
		"[id*='paywall']",
		"[class*='subscription-wall']",
		"[class*='piano-offer']",
		"[class*='premium-wall']",
	},
}

// LoginRules detects authentication gates.
var LoginRules = GateRules{
	Phrases: []string{
		"sign in to continue",
		"log in to continue",
		"login to continue",
		"please sign in",
		"please log in",
		"create an account to",
		"sign up to view",
		"register to view",
		"authentication required",
	},
	Selectors: []string{
		"[class*='login-wall']",
		"[class*='auth-wall']",
		"[class*='signup-wall']",
		"[id*='login-modal']",
		"[class*='gate-content']",
	},
}

// Match reports whether the rules fire against the HTML. doc may be nil;
// selector rules are skipped then.
func (r GateRules) Match(html string, doc *goquery.Document) bool {
	lower := strings.ToLower(html)
	for _, phrase := range r.Phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	if doc == nil {
		return false
	}
	for _, sel := range r.Selectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// CrossHost reports whether the final URL landed on a different host than
// requested, after normalizing away a leading "www." label. A cross-host
// landing is treated as link rot even when the status looks successful.
func CrossHost(requestedURL, finalURL string) bool {
	if finalURL == "" {
		return false
	}
	orig, err := url.Parse(requestedURL)
	if err != nil || orig.Hostname() == "" {
		return false
	}
	final, err := url.Parse(finalURL)
	if err != nil || final.Hostname() == "" {
		return false
	}
	return urlx.NormalizeHost(orig.Hostname()) != urlx.NormalizeHost(final.Hostname())
}

// Classify derives the final classification for one fetch attempt.
// Precedence: Dead > Redirect > Paywall > Login > Ok.
func Classify(requestedURL string, out Outcome, html string) page.Classification {
	if out.Failed() || out.StatusGuess == 404 || out.StatusGuess >= 500 {
		return page.Dead
	}

	if out.StatusGuess >= 200 && out.StatusGuess < 400 &&
		CrossHost(requestedURL, out.FinalURL) {
		return page.Redirect
	}

	if html == "" {
		return page.Ok
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc = nil
	}

	if PaywallRules.Match(html, doc) {
		return page.Paywall
	}
	if LoginRules.Match(html, doc) {
		return page.Login
	}
	return page.Ok
}
