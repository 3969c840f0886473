package refs

import (
	"path/filepath"
	"testing"

	"github.com/pagevet/pagevet/internal/page"
)

func TestFile_SaveLoadRoundTrip(t *testing.T) {
	f := NewFile("pagevet")
	f.References = []Reference{
		{
			URL:        "https://example.com/paper",
			Title:      "A Paper",
			Categories: []string{"papers"},
			CitedIn:    []string{"notes.md"},
			Status:     page.Ok,
			Verified:   "2026-08-01T00:00:00Z",
		},
		{URL: "https://example.com/dead", Status: page.Dead, Notes: "DNS failure"},
	}

	path := filepath.Join(t.TempDir(), "references.yaml")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Meta.Tool != "pagevet" {
		t.Errorf("Tool = %q", got.Meta.Tool)
	}
	if got.Meta.TotalLinks != 2 {
		t.Errorf("TotalLinks = %d, want 2", got.Meta.TotalLinks)
	}
	if len(got.References) != 2 {
		t.Fatalf("got %d references", len(got.References))
	}
	if got.References[0].Status != page.Ok {
		t.Errorf("status round-trip = %v", got.References[0].Status)
	}
	if got.References[1].Status != page.Dead || got.References[1].Notes != "DNS failure" {
		t.Errorf("second ref = %+v", got.References[1])
	}
}

func TestFile_StatusParsesLowercaseNames(t *testing.T) {
	f := NewFile("pagevet")
	f.References = []Reference{{URL: "u", Status: page.Paywall}}
	path := filepath.Join(t.TempDir(), "refs.yaml")
	if err := f.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.References[0].Status != page.Paywall {
		t.Errorf("Status = %v, want paywall", got.References[0].Status)
	}
}

func TestFile_Merge(t *testing.T) {
	f := NewFile("pagevet")
	f.References = []Reference{{
		URL:     "https://example.com/known",
		Status:  page.Ok,
		CitedIn: []string{"a.md"},
	}}

	added := f.Merge([]string{
		"https://example.com/known",
		"https://example.com/new",
	}, "b.md")

	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	known := f.Find("https://example.com/known")
	if known.Status != page.Ok {
		t.Errorf("existing status clobbered: %v", known.Status)
	}
	if len(known.CitedIn) != 2 || known.CitedIn[1] != "b.md" {
		t.Errorf("CitedIn = %v", known.CitedIn)
	}
	fresh := f.Find("https://example.com/new")
	if fresh == nil || fresh.Status != page.Pending {
		t.Errorf("new ref = %+v", fresh)
	}

	// Re-merging the same source is a no-op.
	if added := f.Merge([]string{"https://example.com/known"}, "b.md"); added != 0 {
		t.Errorf("re-merge added %d", added)
	}
	if len(f.Find("https://example.com/known").CitedIn) != 2 {
		t.Error("duplicate cited_in entry")
	}
}

func TestFile_ByCategory(t *testing.T) {
	f := &File{References: []Reference{
		{URL: "a", Categories: []string{"papers"}},
		{URL: "b", Categories: []string{"blogs"}},
		{URL: "c"},
	}}

	if got := f.ByCategory([]string{"papers"}); len(got) != 1 || got[0] != 0 {
		t.Errorf("papers filter = %v", got)
	}
	if got := f.ByCategory(nil); len(got) != 3 {
		t.Errorf("empty filter = %v", got)
	}
}

func TestReference_MarkVerified(t *testing.T) {
	r := &Reference{URL: "u", Status: page.Pending}
	r.MarkVerified(page.Redirect, "Redirected to: https://other.com/")

	if r.Status != page.Redirect {
		t.Errorf("Status = %v", r.Status)
	}
	if r.Verified == "" {
		t.Error("Verified not stamped")
	}
	if r.Notes != "Redirected to: https://other.com/" {
		t.Errorf("Notes = %q", r.Notes)
	}
}

func TestFile_SortByURL(t *testing.T) {
	f := &File{References: []Reference{{URL: "b"}, {URL: "a"}, {URL: "c"}}}
	f.SortByURL()
	if f.References[0].URL != "a" || f.References[2].URL != "c" {
		t.Errorf("order = %+v", f.References)
	}
}
