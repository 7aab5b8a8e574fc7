package recruitment

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Request-failing error kinds.
var (
	ErrMissingJob    = errors.New("no job posting could be resolved for the candidate")
	ErrInvalidResume = errors.New("resume text is missing, too short or binary")
	ErrNoPersonas    = errors.New("no personas selected")
)

// MinResumeChars is the shortest resume, after trimming, that is evaluated.
const MinResumeChars = 50

// binaryRatio is the share of control or replacement runes above which text
// is treated as an undecoded binary upload.
const binaryRatio = 0.1

// ValidateResume returns ErrInvalidResume (wrapped with the reason) when the
// text cannot be evaluated.
func ValidateResume(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidResume)
	}
	if n := utf8.RuneCountInString(trimmed); n < MinResumeChars {
		return fmt.Errorf("%w: %d characters, need at least %d", ErrInvalidResume, n, MinResumeChars)
	}
	if LooksBinary(trimmed) {
		return fmt.Errorf("%w: looks like binary content", ErrInvalidResume)
	}
	return nil
}

// LooksBinary reports whether text is mostly invalid UTF-8 or control bytes,
// as happens when a PDF or image is stored without extraction.
func LooksBinary(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, "%PDF-") || strings.HasPrefix(text, "PK\x03\x04") || strings.ContainsRune(text, 0) {
		return true
	}

	total, bad := 0, 0
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]
		total++
		if r == utf8.RuneError && size <= 1 || r == unicode.ReplacementChar {
			bad++
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			bad++
		}
	}
	return float64(bad)/float64(total) > binaryRatio
}
