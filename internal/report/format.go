package report

import (
	"strings"
	"time"
)

// FallbackTimestamp is shown when a timestamp is empty.
const FallbackTimestamp = "-"

// Layouts accepted from the analysis service. The server emits naive local
// ISO-8601 timestamps with microseconds; RFC 3339 is accepted as well.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var localeLayouts = map[string]string{
	"zh-cn": "2006/1/2 15:04:05",
	"zh":    "2006/1/2 15:04:05",
	"ja-jp": "2006/1/2 15:04:05",
	"en-us": "1/2/2006, 3:04:05 PM",
	"en-gb": "02/01/2006, 15:04:05",
	"de-de": "2.1.2006, 15:04:05",
}

// DefaultTimestampLayout is used for locales without a dedicated layout.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders an ISO-8601 timestamp for the given locale. Input
// that cannot be parsed is returned trimmed as is, and empty input yields
// FallbackTimestamp; it never fails.
func FormatTimestamp(iso, locale string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return FallbackTimestamp
	}
	t, ok := parseTimestamp(iso)
	if !ok {
		return iso
	}
	return t.Format(layoutFor(locale))
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func layoutFor(locale string) string {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if l, ok := localeLayouts[key]; ok {
		return l
	}
	if i := strings.IndexByte(key, '-'); i > 0 {
		if l, ok := localeLayouts[key[:i]]; ok {
			return l
		}
	}
	return DefaultTimestampLayout
}
