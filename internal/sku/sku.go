package sku

import (
	"path"
	"strings"
	"unicode"
)

// Mode selects which filename convention the catalog key is parsed with.
type Mode string

const (
	// ModePrefix takes the first 13 alphanumeric characters of the
	// basename, matching names like 251OM0M43B00X.jpg or 251OM0M43B00X_1.jpg.
	ModePrefix Mode = "prefix"
	// ModeUnderscore takes everything before the first underscore.
	ModeUnderscore Mode = "underscore"
)

const prefixLen = 13

// Extract derives the catalog key from an object key or filename using
// the given mode. When the rule cannot apply (name too short, no
// underscore) the whole basename without extension is the fallback, so a
// key is always produced.
func Extract(objectKey string, mode Mode) string {
	base := path.Base(objectKey)
	stem := strings.TrimSuffix(base, path.Ext(base))

	switch mode {
	case ModeUnderscore:
		if i := strings.Index(stem, "_"); i > 0 {
			return stem[:i]
		}
		return stem
	default:
		if len(base) >= prefixLen && alphanumeric(base[:prefixLen]) {
			return base[:prefixLen]
		}
		return stem
	}
}

func alphanumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
