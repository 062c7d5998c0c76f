package models

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ensureID assigns a fresh id when the caller left it zero. Postgres also
// defaults ids server side; sqlite does not.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Slugify lower-cases s and collapses every run of non alphanumerics into "-".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteRune('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
