package app

import (
	"net/url"
	"strings"
)

// dbNameFromURL extracts the database name for the otelsql db.name
// attribute. Both URL and key=value DSN forms are accepted; an
// unrecognizable DSN yields "".
func dbNameFromURL(raw string) string {
	dsn := strings.TrimSpace(raw)

	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		if name := strings.TrimPrefix(parsed.Path, "/"); strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}

	for _, token := range strings.Fields(dsn) {
		value, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if value != "" {
			return value
		}
	}
	return ""
}
