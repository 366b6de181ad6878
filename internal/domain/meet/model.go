package meet

import (
	"strings"
	"time"
)

// Meet is a competition on a given date. The natural key is
// (NameKey(name), date) because the source references the same meet
// with and without a leading city segment.
type Meet struct {
	ID        int64
	Name      string
	City      string
	StartDate time.Time
	Indoor    bool
}

// A leading segment this short before a comma is treated as a place
// prefix rather than part of the meet name.
const maxPlaceTokenLen = 24

// NameKey normalizes a meet name for natural-key comparison: a leading
// "<place>, " segment is stripped when the segment looks like a place
// name (short, or containing a path-like separator), whitespace is
// collapsed and the result lowercased. "Oslo, NM Friidrett" and
// "NM Friidrett" produce the same key.
func NameKey(name string) string {
	cleaned := strings.Join(strings.Fields(name), " ")
	if idx := strings.Index(cleaned, ", "); idx > 0 {
		head := cleaned[:idx]
		rest := cleaned[idx+2:]
		if rest != "" && looksLikePlace(head) {
			cleaned = rest
		}
	}
	return strings.ToLower(cleaned)
}

func looksLikePlace(token string) bool {
	if strings.ContainsRune(token, '/') {
		return true
	}
	return len(token) <= maxPlaceTokenLen && !strings.ContainsRune(token, ',')
}

// Key combines the normalized name with the date.
func Key(name string, date time.Time) string {
	return NameKey(name) + "|" + date.Format("2006-01-02")
}
