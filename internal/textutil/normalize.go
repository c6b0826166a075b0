// Package textutil provides text normalization helpers shared by the
// classifier, section parser, and record assembler.
package textutil

import (
	"regexp"
	"strings"
)

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9\s]`)
	nonSection  = regexp.MustCompile(`[^\w\s.,!?()\-]`)
	leadBullets = regexp.MustCompile(`^[\s\-*•·]+`)
)

// Normalize lowercases text and reduces it to alphanumeric words separated
// by single spaces. Punctuation and symbols become spaces rather than being
// deleted, so "AI-powered" normalizes to "ai powered" and keyword matching
// sees two words instead of one.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = spaceRun.ReplaceAllString(s, " ")
	s = nonAlnum.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanSection prepares free text for storage: collapses whitespace and
// strips characters outside a conservative allowlist. Pipes and colons are
// removed here, which keeps the CSV join/split delimiters unambiguous.
func CleanSection(s string) string {
	s = nonSection.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripBullet removes leading list markers (dashes, asterisks, bullet
// glyphs) from an extracted list item.
func StripBullet(s string) string {
	return strings.TrimSpace(leadBullets.ReplaceAllString(s, ""))
}

// UniqueNonEmpty cleans each item with CleanSection and drops empties and
// duplicates while preserving first-seen order. Duplicate detection is
// case-insensitive via Normalize. Returns nil when nothing survives.
func UniqueNonEmpty(items []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		cleaned := CleanSection(StripBullet(item))
		if cleaned == "" {
			continue
		}
		key := Normalize(cleaned)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}
