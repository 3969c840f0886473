package pagevet

import (
	"context"
	"sync"
	"time"

	"github.com/pagevet/pagevet/internal/extract"
	"github.com/pagevet/pagevet/internal/page"
)

// DataResult is the live numeric snapshot of one URL: follower counts
// for profile pages, dollar amounts and percentages for everything else.
type DataResult struct {
	URL         string        `json:"url"`
	Type        string        `json:"type"`
	Success     bool          `json:"success"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Amounts     []AmountMatch `json:"amounts,omitempty"`
	Percentages []string      `json:"percentages,omitempty"`
	Followers   string        `json:"followers,omitempty"`
	Username    string        `json:"username,omitempty"`
	Error       string        `json:"error,omitempty"`
	Timestamp   string        `json:"timestamp"`
}

// DataReport aggregates one refresh run.
type DataReport struct {
	Results   []DataResult `json:"results"`
	Timestamp string       `json:"timestamp"`
}

// RefreshOne navigates to a URL and lifts its current figures so stale
// numbers cited in documents can be updated. Failures are recorded in
// the result, never returned; a batch must not stop on one bad source.
func (f *Fetcher) RefreshOne(ctx context.Context, rawURL string) DataResult {
	res := DataResult{
		URL:       rawURL,
		Type:      extract.SourceKind(rawURL),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

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
		f.log.FetchEvent(rawURL, page.Dead.String(), 0, out.Elapsed)
		return res
	}

	html, err := h.HTML()
	if err != nil {
		res.Error = "Failed to read page content: " + err.Error()
		return res
	}

	switch res.Type {
	case "instagram":
		res.Followers = extract.Followers(html)
		res.Username = extract.AccountName(rawURL)
	case "statista":
		res.Title, _ = extract.PageSummary(html)
		res.Amounts = extract.Amounts(html)
		res.Percentages = extract.Percentages(html)
	default:
		res.Title, res.Description = extract.PageSummary(html)
		res.Amounts = extract.Amounts(html)
		res.Percentages = extract.Percentages(html)
	}
	res.Success = true
	f.log.WithURL(rawURL).WithDuration(out.Elapsed).Info("data refreshed")
	return res
}

// RefreshAll refreshes every URL concurrently. Results align with the
// input slice by position.
func (f *Fetcher) RefreshAll(ctx context.Context, urls []string) *DataReport {
	report := &DataReport{
		Results:   make([]DataResult, len(urls)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			report.Results[i] = f.RefreshOne(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return report
}
