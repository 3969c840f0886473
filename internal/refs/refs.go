// Package refs reads and writes the references manifest, a YAML file
// tracking external links cited by a document set and their last known
// verification status.
package refs

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pagevet/pagevet/internal/page"
	"github.com/pagevet/pagevet/internal/urlx"
)

// Meta describes the manifest itself.
type Meta struct {
	Created      string `yaml:"created,omitempty"`
	LastVerified string `yaml:"last_verified,omitempty"`
	Tool         string `yaml:"tool,omitempty"`
	TotalLinks   int    `yaml:"total_links"`
}

// Reference is one tracked link.
type Reference struct {
	URL        string              `yaml:"url"`
	Title      string              `yaml:"title,omitempty"`
	Categories []string            `yaml:"categories,omitempty"`
	CitedIn    []string            `yaml:"cited_in,omitempty"`
	Status     page.Classification `yaml:"status"`
	Verified   string              `yaml:"verified,omitempty"`
	Notes      string              `yaml:"notes,omitempty"`
}

// File is the full manifest.
type File struct {
	Meta       Meta        `yaml:"meta"`
	References []Reference `yaml:"references"`
}

// Load reads and parses a manifest.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read references file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse references file: %w", err)
	}
	return &f, nil
}

// Save writes the manifest, refreshing the link count.
func (f *File) Save(path string) error {
	f.Meta.TotalLinks = len(f.References)
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal references: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Find returns the reference with the given URL, or nil.
func (f *File) Find(url string) *Reference {
	for i := range f.References {
		if f.References[i].URL == url {
			return &f.References[i]
		}
	}
	return nil
}

// Merge adds URLs not already tracked, tagging each with the citing file.
// Existing references keep their status and notes; a new citation source
// is appended to cited_in. Returns the number of new references.
func (f *File) Merge(urls []string, citedIn string) int {
	seen := urlx.NewDeduper(len(f.References) + len(urls))
	for _, ref := range f.References {
		seen.Add(ref.URL)
	}

	added := 0
	for _, u := range urls {
		if seen.Seen(u) {
			if ref := f.Find(u); ref != nil && citedIn != "" && !contains(ref.CitedIn, citedIn) {
				ref.CitedIn = append(ref.CitedIn, citedIn)
			}
			continue
		}
		seen.Add(u)
		ref := Reference{URL: u, Status: page.Pending}
		if citedIn != "" {
			ref.CitedIn = []string{citedIn}
		}
		f.References = append(f.References, ref)
		added++
	}
	return added
}

// MarkVerified records a verification result on the reference, stamped now.
func (r *Reference) MarkVerified(status page.Classification, notes string) {
	r.Status = status
	r.Verified = time.Now().UTC().Format(time.RFC3339)
	if notes != "" {
		r.Notes = notes
	}
}

// ByCategory returns indexes of references carrying any of the wanted
// categories. An empty filter selects everything.
func (f *File) ByCategory(categories []string) []int {
	var idx []int
	for i, ref := range f.References {
		if len(categories) == 0 || overlaps(ref.Categories, categories) {
			idx = append(idx, i)
		}
	}
	return idx
}

// SortByURL orders references lexically so saves are diff-friendly.
func (f *File) SortByURL() {
	sort.Slice(f.References, func(i, j int) bool {
		return f.References[i].URL < f.References[j].URL
	})
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		if contains(b, x) {
			return true
		}
	}
	return false
}

// NewFile creates an empty manifest stamped with the creating tool.
func NewFile(tool string) *File {
	return &File{
		Meta: Meta{
			Created: time.Now().UTC().Format(time.RFC3339),
			Tool:    tool,
		},
	}
}
