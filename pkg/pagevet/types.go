// Package pagevet fetches web pages through a headless browser, classifies
// how they answered and extracts their content into compact structured
// records.
package pagevet

import (
	"github.com/pagevet/pagevet/internal/extract"
	"github.com/pagevet/pagevet/internal/page"
)

// Re-exported result types so callers need only this package.
type (
	Page           = page.Page
	Section        = page.Section
	Link           = page.Link
	CodeBlock      = page.CodeBlock
	Classification = page.Classification
	AmountMatch    = extract.AmountMatch
)

// Classification values.
const (
	StatusPending  = page.Pending
	StatusOk       = page.Ok
	StatusDead     = page.Dead
	StatusRedirect = page.Redirect
	StatusPaywall  = page.Paywall
	StatusLogin    = page.Login
)

// LinkResult is the slim record produced by a liveness check, one per URL.
type LinkResult struct {
	URL        string         `json:"url"`
	Status     Classification `json:"status"`
	Error      string         `json:"error,omitempty"`
	RedirectTo string         `json:"redirect_to,omitempty"`
}

// LinkReport aggregates a batch of liveness checks.
type LinkReport struct {
	Ok      int          `json:"ok"`
	Failed  int          `json:"failed"`
	Results []LinkResult `json:"results"`
}

// VerifySummary counts the outcomes of a manifest verification run.
type VerifySummary struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Ok       int `json:"ok"`
	Dead     int `json:"dead"`
	Redirect int `json:"redirect"`
	Paywall  int `json:"paywall"`
	Login    int `json:"login"`
	Skipped  int `json:"skipped"`
}
