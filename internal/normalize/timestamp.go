package normalize

import (
	"regexp"
	"strings"
	"time"
)

// trailingZone matches a zone abbreviation such as " PST" at the end of an
// export timestamp.
var trailingZone = regexp.MustCompile(`\s+[A-Z]{3,5}$`)

// TimestampLayouts are tried in order. The first is the customer export
// format ("03-Aug-2025 09:15 AM").
var TimestampLayouts = []string{
	"02-Jan-2006 03:04 PM",
	"2-Jan-2006 3:04 PM",
	"02-Jan-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseTimestamp parses an export timestamp after stripping its zone
// abbreviation. The wall clock is kept as is. Unparseable input returns nil.
func ParseTimestamp(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = trailingZone.ReplaceAllString(s, "")
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
