package urlx

import (
	"fmt"
	"testing"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain host", "example.com", "example.com"},
		{"www stripped", "www.example.com", "example.com"},
		{"case folded", "www.Example.com", "example.com"},
		{"only leading label stripped", "www.www.example.com", "www.example.com"},
		{"subdomain kept", "blog.example.com", "blog.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHost(tt.in); got != tt.want {
				t.Errorf("NormalizeHost(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeHost_Idempotent(t *testing.T) {
	if NormalizeHost("www.Example.com") != NormalizeHost("Example.com") {
		t.Error("www.Example.com and Example.com should normalize equal")
	}
	once := NormalizeHost("www.example.com")
	if NormalizeHost(once) != once {
		t.Errorf("normalization not idempotent: %q -> %q", once, NormalizeHost(once))
	}
}

func TestExtractURLs(t *testing.T) {
	content := `
		Check out https://example.com and
		[link](https://foo.bar/path?q=1) for more.
		Also http://old.site.org.
	`
	urls := ExtractURLs(content)
	want := []string{"https://example.com", "https://foo.bar/path?q=1", "http://old.site.org"}
	if len(urls) != len(want) {
		t.Fatalf("got %d URLs %v, want %d", len(urls), urls, len(want))
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestExtractURLs_Dedup(t *testing.T) {
	urls := ExtractURLs("https://dup.com https://dup.com https://dup.com")
	if len(urls) != 1 {
		t.Errorf("got %d URLs, want 1", len(urls))
	}
}

func TestExtractURLs_TrailingPunctuation(t *testing.T) {
	urls := ExtractURLs("See https://example.com/page, then stop.")
	if len(urls) != 1 || urls[0] != "https://example.com/page" {
		t.Errorf("got %v", urls)
	}
}

func TestDeduper(t *testing.T) {
	d := NewDeduper(100)

	if d.Seen("https://example.com") {
		t.Error("fresh deduper should not have seen anything")
	}

	d.Add("https://example.com")
	if !d.Seen("https://example.com") {
		t.Error("added URL not seen")
	}
	d.Add("https://example.com")
	if d.Count() != 1 {
		t.Errorf("Count() = %d, want 1", d.Count())
	}

	for i := 0; i < 5000; i++ {
		d.Add(fmt.Sprintf("https://example.com/p/%d", i))
	}
	if d.Count() != 5001 {
		t.Errorf("Count() = %d, want 5001", d.Count())
	}
	if d.Seen("https://example.com/never-added") {
		t.Error("exact check should reject bloom false positives")
	}
}
