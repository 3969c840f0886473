package textutil

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{
			name: "short string untouched",
			in:   "short",
			max:  10,
			want: "short",
		},
		{
			name: "long string cut with ellipsis",
			in:   "this is a long string",
			max:  10,
			want: "this is...",
		},
		{
			name: "exact length untouched",
			in:   "exactly10!",
			max:  10,
			want: "exactly10!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncate_MultiByte(t *testing.T) {
	// U+2500 is 3 bytes; truncation must never split it.
	dashes := strings.Repeat("─", 100)
	got := Truncate(dashes, 20)

	if !strings.HasSuffix(got, "...") {
		t.Errorf("result %q does not end with ellipsis", got)
	}
	if len(got) > 23 {
		t.Errorf("len = %d, want <= 23", len(got))
	}
	for _, r := range got {
		if r != '─' && r != '.' {
			t.Errorf("unexpected rune %q in %q", r, got)
		}
	}
}

func TestFloorRuneBoundary(t *testing.T) {
	s := "hello─world" // ─ occupies bytes 5..8

	tests := []struct {
		pos  int
		want int
	}{
		{5, 5},
		{6, 5},
		{7, 5},
		{8, 8},
		{100, len(s)},
	}

	for _, tt := range tests {
		if got := FloorRuneBoundary(s, tt.pos); got != tt.want {
			t.Errorf("FloorRuneBoundary(%d) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestTruncateAtSpace(t *testing.T) {
	// Space within 50 bytes of the cut point wins.
	s := strings.Repeat("a", 90) + " " + strings.Repeat("b", 100)
	got := TruncateAtSpace(s, 120)
	if got != strings.Repeat("a", 90)+"..." {
		t.Errorf("expected cut at space, got %q", got)
	}

	// No space near the cut point: raw cut, ellipsis inside the limit.
	raw := strings.Repeat("x", 300)
	got = TruncateAtSpace(raw, 100)
	if got != strings.Repeat("x", 97)+"..." {
		t.Errorf("expected raw cut, got len %d", len(got))
	}

	// Short strings pass through.
	if got := TruncateAtSpace("short", 100); got != "short" {
		t.Errorf("got %q", got)
	}
}

func TestWrapWords(t *testing.T) {
	lines := WrapWords("one two three four five", 9)
	want := []string{"one two", "three", "four five"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(lines), lines, len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	if got := WrapWords("   ", 10); got != nil {
		t.Errorf("blank input should yield no lines, got %v", got)
	}
}
