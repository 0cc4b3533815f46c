// Package ingest loads offices, managers and tickets from CSV exports
// and seeds the database. The files come from Excel in Russian locale,
// so the loaders tolerate BOMs, semicolon delimiters, Cyrillic headers
// and comma decimal separators.
package ingest

import (
	"regexp"
	"strings"

	"fire/internal/domain"
)

var (
	whitespaceRe = regexp.MustCompile(`[\s\x{00a0}]+`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	skillSplitRe = regexp.MustCompile(`[,;\s]+`)
)

// NormalizeColumnName canonicalizes a CSV header cell: BOM removed,
// whitespace runs collapsed to an underscore, lowercased, punctuation
// stripped. Cyrillic letters survive, so "Дата рождения" becomes
// "дата_рождения".
func NormalizeColumnName(name string) string {
	name = strings.ReplaceAll(name, "\ufeff", "")
	name = strings.TrimSpace(name)
	name = whitespaceRe.ReplaceAllString(name, "_")
	name = strings.ToLower(name)
	return nonWordRe.ReplaceAllString(name, "")
}

// CleanString trims whitespace; empty cells become "".
func CleanString(value string) string {
	return strings.TrimSpace(value)
}

// ParseSkills splits a raw skill cell like "VIP, KZ; ENG" into a
// normalized set. Comma, semicolon and whitespace all separate.
func ParseSkills(raw string) domain.SkillSet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.NewSkillSet()
	}
	return domain.NewSkillSet(skillSplitRe.Split(raw, -1)...)
}
