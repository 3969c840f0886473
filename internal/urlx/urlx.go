// Package urlx provides URL normalization, extraction, and deduplication.
package urlx

import (
	"regexp"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// NormalizeHost lowercases a host and strips one leading "www." label, so
// "www.Example.com" and "example.com" compare equal. Normalization is
// idempotent.
func NormalizeHost(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

var urlRe = regexp.MustCompile(`https?://[^\s)>\]"'` + "`" + `]+`)

// ExtractURLs pulls unique http(s) URLs out of markdown or plain text,
// trimming trailing punctuation that belongs to the prose, first
// occurrence order preserved.
func ExtractURLs(content string) []string {
	seen := make(map[string]struct{})
	var urls []string

	for _, match := range urlRe.FindAllString(content, -1) {
		u := strings.TrimRight(match, ",.)];:")
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	return urls
}

// Deduper tracks already-seen URLs across large batches using a Bloom
// filter with an exact map behind it for false-positive confirmation.
type Deduper struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewDeduper creates a deduper sized for the estimated number of URLs.
func NewDeduper(estimatedItems int) *Deduper {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}
	return &Deduper{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Add records a URL.
func (d *Deduper) Add(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.exact[url]; !ok {
		d.filter.AddString(url)
		d.exact[url] = struct{}{}
	}
}

// Seen reports whether the URL was added before.
func (d *Deduper) Seen(url string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.filter.TestString(url) {
		return false
	}
	_, ok := d.exact[url]
	return ok
}

// Count returns the number of distinct URLs recorded.
func (d *Deduper) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.exact)
}
