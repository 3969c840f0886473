package extract

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pagevet/pagevet/internal/page"
	"github.com/pagevet/pagevet/internal/textutil"
	"github.com/pagevet/pagevet/internal/urlx"
)

var (
	mdHeadingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	numHeadingRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+[A-Z]`)
	chapterRe    = regexp.MustCompile(`^(?:Chapter|Section|Part)\s+\d+`)

	authorRe = regexp.MustCompile(`(?i)\b(?:authors?|written by)[:\s]+([^\n]+)`)
	dateRe   = regexp.MustCompile(`(?i)\b(?:date|published|updated)[:\s]+(\d{4}[-/]\d{1,2}[-/]\d{1,2}|\w+\s+\d{1,2},?\s+\d{4})`)
	doiRe    = regexp.MustCompile(`(?i)\b(?:doi[:\s]+|https?://(?:dx\.)?doi\.org/)(10\.\d{4,9}/[^\s"<>)\]]+)`)
)

// FromText builds a structured page from already-decoded document text,
// typically a PDF run through a text extractor. Headings are recognized
// from markdown markers, numbered outline prefixes and all-caps lines;
// everything else becomes section content.
func FromText(text, sourceURL string) *page.Page {
	p := &page.Page{
		URL:   sourceURL,
		Title: textTitle(text, sourceURL),
	}

	if m := authorRe.FindStringSubmatch(text); m != nil {
		if a := strings.TrimSpace(m[1]); len(a) < 200 {
			p.Author = a
		}
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		p.Date = strings.TrimSpace(m[1])
	}
	if m := doiRe.FindStringSubmatch(text); m != nil {
		p.DOI = strings.TrimRight(m[1], ".,;")
	}

	p.Sections = textSections(text)
	p.Links = textLinks(text)
	p.Code = textCode(text)

	for _, s := range p.Sections {
		p.Chars += len(s.Heading) + len(s.Content)
	}
	return p
}

// textTitle takes the first plausible line, else the source filename stem.
func textTitle(text, sourceURL string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, heading, ok := detectHeading(line); ok {
			line = heading
		}
		if len(line) >= minTextLen && len(line) <= maxHeadingLen && !strings.Contains(line, "://") {
			return line
		}
		break
	}
	base := path.Base(sourceURL)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// detectHeading reports whether a trimmed line reads as a heading and at
// what level. Markdown depth and numbered-outline depth map to levels;
// all-caps lines and chapter markers are level 1.
func detectHeading(line string) (int, string, bool) {
	if m := mdHeadingRe.FindStringSubmatch(line); m != nil {
		if text := strings.TrimSpace(m[2]); text != "" {
			return len(m[1]), text, true
		}
	}
	if m := numHeadingRe.FindStringSubmatch(line); m != nil && len(line) < 100 && !strings.HasSuffix(line, ".") {
		level := strings.Count(m[1], ".") + 1
		if level > 6 {
			level = 6
		}
		return level, line, true
	}
	if chapterRe.MatchString(line) && len(line) < 100 {
		return 1, line, true
	}
	if isUpperRun(line) {
		return 1, line, true
	}
	return 0, "", false
}

// isUpperRun matches short shouting lines like "INTRODUCTION".
func isUpperRun(line string) bool {
	if len(line) <= 3 || len(line) >= 100 {
		return false
	}
	upper := 0
	for _, r := range line {
		if unicode.IsUpper(r) {
			upper++
		} else if unicode.IsLower(r) {
			return false
		}
	}
	return upper*2 > utf8.RuneCountInString(line)
}

func textSections(text string) []page.Section {
	var secs []page.Section
	cur := page.Section{Level: 1, Heading: "Content"}
	var content strings.Builder

	flush := func() {
		body := strings.TrimSpace(content.String())
		if body != "" && len(secs) < maxSections {
			cur.Content = textutil.TruncateAtSpace(body, maxSectionLen)
			secs = append(secs, cur)
		}
		content.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if content.Len() > 0 && !strings.HasSuffix(content.String(), "\n\n") {
				content.WriteString("\n\n")
			}
			continue
		}
		if level, heading, ok := detectHeading(line); ok {
			flush()
			if len(secs) >= maxSections {
				return secs
			}
			cur = page.Section{Level: level, Heading: textutil.Truncate(heading, maxHeadingLen)}
			continue
		}
		if len(line) < minTextLen {
			continue
		}
		if content.Len() > 0 && !strings.HasSuffix(content.String(), "\n") {
			content.WriteByte(' ')
		}
		content.WriteString(line)
	}
	flush()
	return secs
}

// textLinks lifts bare URLs out of the text; the URL doubles as link text.
func textLinks(text string) []page.Link {
	var out []page.Link
	for _, u := range urlx.ExtractURLs(text) {
		if len(out) >= maxLinks {
			break
		}
		out = append(out, page.Link{Text: textutil.Truncate(u, maxLinkTextLen), URL: u})
	}
	return out
}

// codeKeywords suggest a line is source code rather than prose.
var codeKeywords = []string{
	"fn ", "def ", "function ", "class ", "import ", "package ",
	"#include", "public static", "=> {", "let ", "const ",
}

func looksLikeCode(line string) bool {
	if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return true
	}
	trimmed := strings.TrimSpace(line)
	for _, kw := range codeKeywords {
		if strings.HasPrefix(trimmed, kw) || strings.Contains(trimmed, " "+kw) {
			return true
		}
	}
	return false
}

// textCode gathers runs of code-looking lines. Runs under three lines or
// twenty characters are prose artifacts, not code.
func textCode(text string) []page.CodeBlock {
	var blocks []page.CodeBlock
	seen := make(map[string]struct{})
	var run []string

	flush := func() {
		defer func() { run = nil }()
		if len(run) < 3 {
			return
		}
		source := strings.TrimSpace(strings.Join(run, "\n"))
		if len(source) < 20 {
			return
		}
		if _, dup := seen[source]; dup {
			return
		}
		seen[source] = struct{}{}
		if len(blocks) < maxCodeBlocks {
			blocks = append(blocks, page.CodeBlock{
				Lang:   detectLanguage(source),
				Source: textutil.TruncateAtSpace(source, maxCodeLen),
			})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if looksLikeCode(line) {
			run = append(run, line)
			continue
		}
		if strings.TrimSpace(line) == "" && len(run) > 0 {
			// Blank lines inside an indented block belong to it.
			run = append(run, line)
			continue
		}
		flush()
	}
	flush()
	return blocks
}

func detectLanguage(source string) string {
	switch {
	case strings.Contains(source, "fn ") && (strings.Contains(source, "let ") || strings.Contains(source, "->")):
		return "rust"
	case strings.Contains(source, "def ") || (strings.Contains(source, "import ") && strings.Contains(source, ":")):
		return "python"
	case strings.Contains(source, "function ") || strings.Contains(source, "=>") || strings.Contains(source, "const "):
		return "javascript"
	case strings.Contains(source, "public static") || strings.Contains(source, "System.out"):
		return "java"
	case strings.Contains(source, "#include"):
		return "c"
	default:
		return ""
	}
}
