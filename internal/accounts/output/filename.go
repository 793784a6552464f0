package output

import (
	"strings"
	"time"
)

const maxSanitizedNameLen = 80

// SanitizeCompanyName reduces a company name to the characters safe in a
// statement file name. Runs of anything outside [A-Za-z0-9] collapse to a
// single underscore, case is preserved, and the result is capped at 80
// characters. Existing filed statements depend on this exact shape.
func SanitizeCompanyName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastUnderscore := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= maxSanitizedNameLen {
			break
		}
	}

	return strings.Trim(b.String(), "_")
}

// BaseName builds the stem shared by the HTML and PDF statement files,
// FS_<company>_<period end>. Callers append the extension.
func BaseName(companyName string, periodEnd time.Time) string {
	sanitized := SanitizeCompanyName(companyName)
	if sanitized == "" {
		sanitized = "Client"
	}
	return "FS_" + sanitized + "_" + periodEnd.UTC().Format("2006-01-02")
}
