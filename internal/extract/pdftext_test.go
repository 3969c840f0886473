package extract

import (
	"strings"
	"testing"
)

func TestFromText_MarkdownSections(t *testing.T) {
	p := FromText("# A\n\npara1\n\n# B\n\npara2", "https://example.com/doc.pdf")

	if len(p.Sections) != 2 {
		t.Fatalf("got %d sections: %+v", len(p.Sections), p.Sections)
	}
	if p.Sections[0].Level != 1 || p.Sections[0].Heading != "A" || p.Sections[0].Content != "para1" {
		t.Errorf("first section = %+v", p.Sections[0])
	}
	if p.Sections[1].Level != 1 || p.Sections[1].Heading != "B" || p.Sections[1].Content != "para2" {
		t.Errorf("second section = %+v", p.Sections[1])
	}
}

func TestDetectHeading(t *testing.T) {
	tests := []struct {
		line      string
		wantLevel int
		wantText  string
		wantOK    bool
	}{
		{"# Intro", 1, "Intro", true},
		{"### Deep", 3, "Deep", true},
		{"INTRODUCTION", 1, "INTRODUCTION", true},
		{"1. Background", 1, "1. Background", true},
		{"2.3 Methods", 2, "2.3 Methods", true},
		{"Chapter 4", 1, "Chapter 4", true},
		{"regular prose line", 0, "", false},
		{"1999 was a year that ended.", 0, "", false},
		{"ab", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			level, text, ok := detectHeading(tt.line)
			if ok != tt.wantOK || level != tt.wantLevel || text != tt.wantText {
				t.Errorf("detectHeading(%q) = (%d, %q, %v), want (%d, %q, %v)",
					tt.line, level, text, ok, tt.wantLevel, tt.wantText, tt.wantOK)
			}
		})
	}
}

func TestFromText_PreambleGetsContentHeading(t *testing.T) {
	p := FromText("Some opening prose before any heading.\n\nINTRODUCTION\n\nbody text", "https://example.com/x.pdf")

	if len(p.Sections) != 2 {
		t.Fatalf("sections = %+v", p.Sections)
	}
	if p.Sections[0].Heading != "Content" {
		t.Errorf("preamble heading = %q", p.Sections[0].Heading)
	}
	if p.Sections[1].Heading != "INTRODUCTION" {
		t.Errorf("second heading = %q", p.Sections[1].Heading)
	}
}

func TestFromText_WrappedLinesJoin(t *testing.T) {
	p := FromText("# H\n\nfirst half of a sentence\nsecond half of it\n\nnext paragraph", "u")

	want := "first half of a sentence second half of it\n\nnext paragraph"
	if len(p.Sections) != 1 || p.Sections[0].Content != want {
		t.Errorf("sections = %+v", p.Sections)
	}
}

func TestFromText_Metadata(t *testing.T) {
	text := `Understanding Memory Ordering

Author: Jane Smith
Published: 2023-11-05
doi: 10.1145/3591283

INTRODUCTION

Body content goes here.`

	p := FromText(text, "https://example.com/paper.pdf")
	if p.Title != "Understanding Memory Ordering" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Author != "Jane Smith" {
		t.Errorf("Author = %q", p.Author)
	}
	if p.Date != "2023-11-05" {
		t.Errorf("Date = %q", p.Date)
	}
	if p.DOI != "10.1145/3591283" {
		t.Errorf("DOI = %q", p.DOI)
	}
}

func TestFromText_TitleFromFilename(t *testing.T) {
	p := FromText("", "https://example.com/papers/memory-model.pdf")
	if p.Title != "memory-model" {
		t.Errorf("Title = %q, want filename stem", p.Title)
	}
}

func TestFromText_Links(t *testing.T) {
	text := "# Refs\n\nSee https://example.com/one and (https://example.com/two)."
	p := FromText(text, "u")

	if len(p.Links) != 2 {
		t.Fatalf("links = %+v", p.Links)
	}
	if p.Links[0].URL != "https://example.com/one" {
		t.Errorf("first link = %+v", p.Links[0])
	}
	if p.Links[1].URL != "https://example.com/two" {
		t.Errorf("second link = %+v", p.Links[1])
	}
}

func TestFromText_CodeBlocks(t *testing.T) {
	text := `# Example

Prose around the sample.

def main():
    print("hello")
    return 0

More prose after the block.`

	p := FromText(text, "u")
	if len(p.Code) != 1 {
		t.Fatalf("code = %+v", p.Code)
	}
	if p.Code[0].Lang != "python" {
		t.Errorf("Lang = %q", p.Code[0].Lang)
	}
	if !strings.Contains(p.Code[0].Source, `print("hello")`) {
		t.Errorf("Source = %q", p.Code[0].Source)
	}
}

func TestFromText_ShortRunsNotCode(t *testing.T) {
	p := FromText("prose\n    one indented line\nprose again", "u")
	if len(p.Code) != 0 {
		t.Errorf("code = %+v", p.Code)
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"fn main() -> i32 {\n    let x = 1;\n}", "rust"},
		{"def run():\n    pass", "python"},
		{"const x = () => 1", "javascript"},
		{"public static void main(String[] args)", "java"},
		{"#include <stdio.h>\nint main(void)", "c"},
		{"SELECT * FROM t", ""},
	}

	for _, tt := range tests {
		if got := detectLanguage(tt.src); got != tt.want {
			t.Errorf("detectLanguage(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}
