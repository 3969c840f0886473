// Package extract turns rendered HTML (or decoded plain text) into the
// structured page record: metadata, heading-delimited sections, links and
// code blocks, all capped so output stays compact.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pagevet/pagevet/internal/page"
	"github.com/pagevet/pagevet/internal/textutil"
)

// Output caps. Keeping results small matters more than completeness here;
// the record is meant to be read whole, not archived.
const (
	maxHeadingLen   = 200
	maxParagraphLen = 2000
	maxSectionLen   = 10000
	maxSections     = 50
	maxLinks        = 50
	maxLinkTextLen  = 100
	maxCodeLen      = 5000
	maxCodeBlocks   = 20

	minTextLen = 3
	minCodeLen = 10

	fallbackWrapWidth = 120
	fallbackMaxLines  = 100
)

// contentScopes is tried in order; the first matching element becomes the
// extraction scope so boilerplate chrome stays out of the sections.
var contentScopes = []string{
	"main",
	"article",
	"[role='main']",
	".post-content",
	".article-content",
	".entry-content",
	"#content",
	".content",
}

// FromHTML extracts a structured page from rendered HTML, scoping section,
// link and code extraction to the main content region when one is found.
// The returned page has metadata and content filled in; Status and URL-level
// fields are the caller's business.
func FromHTML(html, pageURL string) (*page.Page, error) {
	return fromHTML(html, pageURL, false)
}

// FromHTMLRaw is FromHTML without the content-region scoping: the whole
// document participates, boilerplate included.
func FromHTMLRaw(html, pageURL string) (*page.Page, error) {
	return fromHTML(html, pageURL, true)
}

func fromHTML(html, pageURL string, raw bool) (*page.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	scope := doc.Selection
	if !raw {
		scope = contentScope(doc)
	}

	p := &page.Page{
		URL:    pageURL,
		Title:  extractTitle(doc),
		Site:   firstMeta(doc, "og:site_name"),
		Author: extractAuthor(doc),
		Date:   extractDate(doc),
		DOI:    extractDOI(doc),
	}

	p.Sections = sections(scope)
	if len(p.Sections) == 0 {
		p.Sections = fallbackSections(scope)
	}
	p.Links = links(scope, pageURL)
	p.Code = codeBlocks(scope)

	for _, s := range p.Sections {
		p.Chars += len(s.Heading) + len(s.Content)
	}
	return p, nil
}

// contentScope picks the main content region, falling back to a body with
// navigation chrome stripped, then to the whole document.
func contentScope(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentScopes {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		body.Find("nav, header, footer, aside").Remove()
		return body
	}
	return doc.Selection
}

// firstMeta returns the content of the first meta tag whose property or
// name attribute equals key.
func firstMeta(doc *goquery.Document, key string) string {
	for _, attr := range []string{"property", "name"} {
		sel := doc.Find("meta[" + attr + "='" + key + "']").First()
		if v, ok := sel.Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func extractTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := firstMeta(doc, "og:title"); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractAuthor(doc *goquery.Document) string {
	if a := firstMeta(doc, "author"); a != "" {
		return a
	}
	return firstMeta(doc, "article:author")
}

func extractDate(doc *goquery.Document) string {
	for _, key := range []string{"article:published_time", "date", "pubdate"} {
		if d := firstMeta(doc, key); d != "" {
			return d
		}
	}
	return ""
}

func extractDOI(doc *goquery.Document) string {
	if d := firstMeta(doc, "citation_doi"); d != "" {
		return d
	}
	if d := firstMeta(doc, "DC.identifier"); d != "" {
		if strings.Contains(d, "doi.org") || strings.HasPrefix(d, "10.") {
			return d
		}
	}
	if href, ok := doc.Find("a[href*='doi.org']").First().Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	return ""
}

// sections walks headings and paragraphs in document order. Each heading
// opens a section; paragraphs accumulate into the open one. Paragraphs
// before the first heading are dropped, sections without content are not
// emitted.
func sections(scope *goquery.Selection) []page.Section {
	var secs []page.Section
	var cur *page.Section
	full := false

	flush := func() {
		if cur != nil && cur.Content != "" && len(secs) < maxSections {
			secs = append(secs, *cur)
		}
		cur = nil
		full = false
	}

	scope.Find("h1, h2, h3, h4, h5, h6, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(secs) >= maxSections {
			return false
		}
		text := strings.TrimSpace(s.Text())
		name := goquery.NodeName(s)

		if len(name) == 2 && name[0] == 'h' {
			if text == "" {
				return true
			}
			flush()
			cur = &page.Section{
				Level:   int(name[1] - '0'),
				Heading: textutil.Truncate(text, maxHeadingLen),
			}
			return true
		}

		// Paragraph. Short fragments are noise, not content.
		if cur == nil || full || len(text) < minTextLen {
			return true
		}
		para := textutil.TruncateAtSpace(text, maxParagraphLen)
		if cur.Content != "" {
			cur.Content += "\n\n"
		}
		cur.Content += para
		if len(cur.Content) >= maxSectionLen {
			cur.Content = textutil.TruncateAtSpace(cur.Content, maxSectionLen)
			full = true
		}
		return true
	})
	flush()
	return secs
}

// fallbackSections renders the scope as wrapped plain text when the page
// has no usable heading structure, so something readable always comes back
// for pages built entirely out of divs.
func fallbackSections(scope *goquery.Selection) []page.Section {
	raw, err := goquery.OuterHtml(scope)
	if err != nil {
		raw = scope.Text()
	}
	lines := textutil.WrapWords(visibleText(raw), fallbackWrapWidth)
	if len(lines) == 0 {
		return nil
	}
	if len(lines) > fallbackMaxLines {
		lines = lines[:fallbackMaxLines]
	}
	content := textutil.TruncateAtSpace(strings.Join(lines, "\n"), maxSectionLen)
	return []page.Section{{Level: 1, Heading: "Content", Content: content}}
}

// links collects content links: anchors with a real href and at least a
// few characters of text. URLs resolve against the page URL and repeat
// targets keep their first text.
func links(scope *goquery.Selection, pageURL string) []page.Link {
	base, _ := url.Parse(pageURL)

	var out []page.Link
	seen := make(map[string]struct{})
	scope.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(out) >= maxLinks {
			return false
		}
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if len(text) < minTextLen {
			return true
		}
		resolved := href
		if base != nil {
			if u, err := base.Parse(href); err == nil {
				resolved = u.String()
			}
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		out = append(out, page.Link{
			Text: textutil.Truncate(text, maxLinkTextLen),
			URL:  resolved,
		})
		return true
	})
	return out
}

// codeBlocks prefers pre>code over bare pre so highlighted blocks keep
// their language class. Exact duplicates collapse to one.
func codeBlocks(scope *goquery.Selection) []page.CodeBlock {
	var blocks []page.CodeBlock
	seen := make(map[string]struct{})

	for _, sel := range []string{"pre code", "pre"} {
		scope.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(blocks) >= maxCodeBlocks {
				return false
			}
			source := strings.TrimSpace(s.Text())
			if len(source) < minCodeLen {
				return true
			}
			if _, dup := seen[source]; dup {
				return true
			}
			seen[source] = struct{}{}

			lang := ""
			if class, ok := s.Attr("class"); ok {
				lang = langFromClass(class)
			}
			blocks = append(blocks, page.CodeBlock{
				Lang:   lang,
				Source: textutil.TruncateAtSpace(source, maxCodeLen),
			})
			return true
		})
		if len(blocks) >= maxCodeBlocks {
			break
		}
	}
	return blocks
}

func langFromClass(class string) string {
	for _, cls := range strings.Fields(class) {
		if strings.HasPrefix(cls, "language-") {
			return strings.TrimPrefix(cls, "language-")
		}
		if strings.HasPrefix(cls, "lang-") {
			return strings.TrimPrefix(cls, "lang-")
		}
	}
	return ""
}
