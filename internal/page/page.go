// Package page defines the structured result types produced by a fetch.
package page

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Classification is the coarse outcome of a fetch attempt.
type Classification int

const (
	// Pending means the URL has not been verified yet.
	Pending Classification = iota
	// Ok means the page loaded and its content is accessible.
	Ok
	// Dead means navigation failed or the page reported 404/5xx.
	Dead
	// Redirect means the final host differs from the requested host.
	Redirect
	// Paywall means the page loaded but content is behind a paywall.
	Paywall
	// Login means the page loaded but requires authentication to view.
	Login
)

// String returns the lowercase name used in JSON and YAML output.
func (c Classification) String() string {
	switch c {
	case Pending:
		return "pending"
	case Ok:
		return "ok"
	case Dead:
		return "dead"
	case Redirect:
		return "redirect"
	case Paywall:
		return "paywall"
	case Login:
		return "login"
	default:
		return "pending"
	}
}

// MarshalText implements encoding.TextMarshaler so the enum serializes as
// its lowercase name in both JSON and YAML.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Classification) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending", "":
		*c = Pending
	case "ok":
		*c = Ok
	case "dead":
		*c = Dead
	case "redirect":
		*c = Redirect
	case "paywall":
		*c = Paywall
	case "login":
		*c = Login
	default:
		return fmt.Errorf("unknown classification %q", string(text))
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. The yaml package honors
// TextMarshaler when encoding but not TextUnmarshaler when decoding, so
// this bridge is needed for manifest round-trips.
func (c *Classification) UnmarshalYAML(value *yaml.Node) error {
	return c.UnmarshalText([]byte(value.Value))
}

// Section is a run of content under one heading, in document order.
type Section struct {
	Level   int    `json:"level" yaml:"level"`
	Heading string `json:"heading" yaml:"heading"`
	Content string `json:"content" yaml:"content"`
}

// Link is a content link with resolved absolute URL.
type Link struct {
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url" yaml:"url"`
}

// CodeBlock is an extracted code block.
type CodeBlock struct {
	Lang   string `json:"lang,omitempty" yaml:"lang,omitempty"`
	Source string `json:"source" yaml:"source"`
}

// Page is the structured record for one fetched URL (or decoded PDF text).
// It is built once per fetch and not mutated afterwards.
type Page struct {
	URL      string         `json:"url" yaml:"url"`
	Status   Classification `json:"status" yaml:"status"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Site     string         `json:"site,omitempty" yaml:"site,omitempty"`
	Author   string         `json:"author,omitempty" yaml:"author,omitempty"`
	Date     string         `json:"date,omitempty" yaml:"date,omitempty"`
	DOI      string         `json:"doi,omitempty" yaml:"doi,omitempty"`
	Sections []Section      `json:"sections,omitempty" yaml:"sections,omitempty"`
	Links    []Link         `json:"links,omitempty" yaml:"links,omitempty"`
	Code     []CodeBlock    `json:"code,omitempty" yaml:"code,omitempty"`
	Alerts   []string       `json:"alerts,omitempty" yaml:"alerts,omitempty"`
	Chars    int            `json:"chars" yaml:"chars"`
}
