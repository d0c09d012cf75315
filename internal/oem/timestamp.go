package oem

import (
	"math"
	"strings"
	"time"
)

const isoSeconds = "2006-01-02T15:04:05"

// offsetLayouts match ISO-8601 strings carrying an explicit UTC offset.
// Trailing "Z" is rewritten to "+00:00" before these are tried, so the
// rendered result always shows a numeric offset.
var offsetLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04-07:00",
	"2006-01-02 15:04-07:00",
}

// naiveLayouts cover ISO-8601 strings without an offset plus the legacy
// export formats some portals still emit.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
}

// toISO8601 normalizes a raw timestamp, either numeric epoch seconds or one
// of the accepted string forms, to the canonical ISO-8601 rendering with
// second precision. override, when a well-formed ±HH:MM offset, replaces the
// "Z" suffix on inputs that carry no offset of their own; malformed
// overrides are ignored. Unparsable values report absence so the caller can
// drop the row.
func toISO8601(v any, override string) (string, bool) {
	switch val := v.(type) {
	case float64:
		return epochToISO(val)
	case int:
		return epochToISO(float64(val))
	case int64:
		return epochToISO(float64(val))
	case string:
		return stringToISO(val, override)
	default:
		return "", false
	}
}

// epochToISO renders epoch seconds as UTC. Fractional seconds are floored,
// and values outside the representable calendar are rejected.
func epochToISO(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 1e18 {
		return "", false
	}
	t := time.Unix(int64(math.Floor(f)), 0).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return "", false
	}
	return t.Format(isoSeconds) + "Z", true
}

func stringToISO(s, override string) (string, bool) {
	text := strings.TrimSpace(s)
	if text == "" {
		return "", false
	}
	if strings.HasSuffix(text, "Z") {
		text = strings.TrimSuffix(text, "Z") + "+00:00"
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02T15:04:05-07:00"), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			if isOffset(override) {
				return t.Format(isoSeconds) + override, true
			}
			return t.Format(isoSeconds) + "Z", true
		}
	}
	return "", false
}

// isOffset reports whether v is a strict six-character ±HH:MM offset.
func isOffset(v string) bool {
	if len(v) != 6 || (v[0] != '+' && v[0] != '-') || v[3] != ':' {
		return false
	}
	for _, i := range []int{1, 2, 4, 5} {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}
