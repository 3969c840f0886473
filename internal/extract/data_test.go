package extract

import (
	"fmt"
	"strings"
	"testing"
)

func TestAmounts(t *testing.T) {
	text := "The market is worth $33 billion, up from $48.2M two years ago."
	got := Amounts(text)
	if len(got) != 2 {
		t.Fatalf("got %d amounts: %+v", len(got), got)
	}
	if got[0].Value != "33" || got[0].Unit != "billion" || got[0].Raw != "$33 billion" {
		t.Errorf("first amount = %+v", got[0])
	}
	if got[1].Value != "48.2" || got[1].Unit != "M" {
		t.Errorf("second amount = %+v", got[1])
	}

	if got := Amounts("no figures here"); len(got) != 0 {
		t.Errorf("got %+v from text without amounts", got)
	}

	// A bare amount keeps an empty unit.
	got = Amounts("costs $1,200 per seat")
	if len(got) != 1 || got[0].Value != "1,200" || got[0].Unit != "" {
		t.Errorf("bare amount = %+v", got)
	}
}

func TestAmounts_Cap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "$%d million ", i+1)
	}
	if got := Amounts(b.String()); len(got) != maxDataMatches {
		t.Errorf("got %d amounts, want %d", len(got), maxDataMatches)
	}
}

func TestPercentages(t *testing.T) {
	got := Percentages("71% of marketers agree, up from 53 % last year")
	if len(got) != 2 || got[0] != "71%" || got[1] != "53%" {
		t.Errorf("got %v", got)
	}

	if got := Percentages("no percentages"); len(got) != 0 {
		t.Errorf("got %v from text without percentages", got)
	}
}

func TestFollowers(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"577K Followers, 1,148 Following", "577K"},
		{"2,500 followers on this account", "2,500"},
		{"1.2M Followers", "1.2M"},
		{"no social proof here", ""},
	}

	for _, tt := range tests {
		if got := Followers(tt.text); got != tt.want {
			t.Errorf("Followers(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestSourceKind(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.instagram.com/testuser/", "instagram"},
		{"https://instagram.com/other", "instagram"},
		{"https://www.statista.com/statistics/123/", "statista"},
		{"https://techcrunch.com/2026/01/02/story/", "generic"},
	}

	for _, tt := range tests {
		if got := SourceKind(tt.url); got != tt.want {
			t.Errorf("SourceKind(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestAccountName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.instagram.com/testuser/", "testuser"},
		{"https://www.instagram.com/a/b", "b"},
		{"https://example.com", ""},
		{"://bad", ""},
	}

	for _, tt := range tests {
		if got := AccountName(tt.url); got != tt.want {
			t.Errorf("AccountName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestPageSummary(t *testing.T) {
	html := `<html><head><title>Test Page</title>
<meta name="description" content="A test description"></head>
<body><h1>Main Title</h1></body></html>`

	title, desc := PageSummary(html)
	if title != "Main Title" {
		t.Errorf("title = %q, want h1 to win over <title>", title)
	}
	if desc != "A test description" {
		t.Errorf("description = %q", desc)
	}

	// Without an h1 the document title is used.
	title, desc = PageSummary(`<html><head><title>Only Title</title></head><body></body></html>`)
	if title != "Only Title" || desc != "" {
		t.Errorf("fallback = (%q, %q)", title, desc)
	}
}
