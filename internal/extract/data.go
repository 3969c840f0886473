package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Live-data extraction lifts numeric figures out of a page so stale
// numbers cited in documents can be refreshed against the source.

// maxDataMatches caps how many figures of each kind one page yields.
const maxDataMatches = 10

var (
	amountRe    = regexp.MustCompile(`\$([0-9,.]+)\s*(billion|million|B|M|K)?`)
	percentRe   = regexp.MustCompile(`([0-9,.]+)\s*%`)
	followersRe = regexp.MustCompile(`([0-9,.]+[KMB]?)\s*[Ff]ollowers`)
)

// AmountMatch is one dollar figure found in a page.
type AmountMatch struct {
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
	Raw   string `json:"raw"`
}

// Amounts returns the dollar amounts found in text, in document order,
// capped at 10.
func Amounts(text string) []AmountMatch {
	var out []AmountMatch
	for _, m := range amountRe.FindAllStringSubmatch(text, maxDataMatches) {
		out = append(out, AmountMatch{Value: m[1], Unit: m[2], Raw: m[0]})
	}
	return out
}

// Percentages returns the percentage figures found in text with the
// percent sign reattached, capped at 10.
func Percentages(text string) []string {
	var out []string
	for _, m := range percentRe.FindAllStringSubmatch(text, maxDataMatches) {
		out = append(out, m[1]+"%")
	}
	return out
}

// Followers returns the first follower count found in text ("577K",
// "2,500"), or "" when the page shows none.
func Followers(text string) string {
	if m := followersRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// SourceKind names the live-data extractor that applies to a URL:
// "instagram" for profile pages, "statista" for statistics pages,
// "generic" for everything else.
func SourceKind(rawURL string) string {
	switch {
	case strings.Contains(rawURL, "instagram.com"):
		return "instagram"
	case strings.Contains(rawURL, "statista.com"):
		return "statista"
	default:
		return "generic"
	}
}

// AccountName returns the last path segment of a profile URL, or "".
func AccountName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segs[len(segs)-1]
}

// PageSummary returns a page's display title and meta description.
// Unlike full extraction, the first h1 wins over <title>: on data pages
// the h1 names the statistic while <title> carries site chrome.
func PageSummary(html string) (title, description string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	description, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	return title, strings.TrimSpace(description)
}
