package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestTruncateWithMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "no limit", input: "hello world", limit: 0, expect: "hello world"},
		{name: "fits", input: "hello", limit: 5, expect: "hello"},
		{name: "cut keeps head", input: "hello world", limit: 6, expect: "hello [ingekort]"},
		{name: "counts runes", input: "ëëëëë", limit: 2, expect: "ëë [ingekort]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateWithMarker(tt.input, tt.limit, " [ingekort]"); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	if got := FirstNonEmpty("", "  ", "b", "c"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
