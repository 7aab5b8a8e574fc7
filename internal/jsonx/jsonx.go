// Package jsonx pulls a JSON object out of free-form model output.
package jsonx

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoObject is returned when the text contains no '{' ... '}' region.
	ErrNoObject = errors.New("no json object found")
	// ErrInvalid is returned when the located region is not a valid JSON object.
	ErrInvalid = errors.New("invalid json object")
)

// Extract returns the JSON object embedded in raw. Code fences are removed
// first; when the remainder does not start with '{' the first balanced
// object is taken, falling back to the widest '{' ... '}' span.
func Extract(raw string) (string, error) {
	text := StripFences(raw)
	if text == "" {
		return "", ErrNoObject
	}

	if !strings.HasPrefix(text, "{") {
		obj, ok := firstBalanced(text)
		if !ok {
			obj, ok = greedy(text)
		}
		if !ok {
			return "", ErrNoObject
		}
		text = obj
	}

	if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
		// A model sometimes appends prose after a valid object.
		if obj, ok := firstBalanced(text); ok && obj != text && gjson.Valid(obj) {
			return obj, nil
		}
		return "", ErrInvalid
	}

	return text, nil
}

// StripFences removes a surrounding ``` or ```json fence.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "```")
	if start == -1 {
		return text
	}

	inner := text[start+3:]
	if nl := strings.IndexByte(inner, '\n'); nl != -1 {
		lang := strings.TrimSpace(inner[:nl])
		if lang == "" || isFenceTag(lang) {
			inner = inner[nl+1:]
		}
	} else {
		inner = strings.TrimPrefix(inner, "json")
	}

	if end := strings.LastIndex(inner, "```"); end != -1 {
		inner = inner[:end]
	}
	return strings.TrimSpace(inner)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// firstBalanced scans for the first '{' and its matching '}', skipping braces
// inside string literals.
func firstBalanced(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func greedy(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
