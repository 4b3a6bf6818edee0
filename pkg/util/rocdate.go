package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ROC (Minguo) calendar helpers. The wholesale market feed reports dates as
// "114.08.10" (year 1911 offset). The canonical key form is "114-08-10":
// zero-padded components so lexicographic order matches chronological order.

const rocYearOffset = 1911

// ROCDotted formats t as the dotted query form used by the open-data endpoint.
func ROCDotted(t time.Time) string {
	return fmt.Sprintf("%03d.%02d.%02d", t.Year()-rocYearOffset, t.Month(), t.Day())
}

// ROCKey formats t as the canonical sortable key form.
func ROCKey(t time.Time) string {
	return fmt.Sprintf("%03d-%02d-%02d", t.Year()-rocYearOffset, t.Month(), t.Day())
}

// NormalizeROCKey converts a raw feed date ("114.08.10" or "114-08-10") into
// the canonical key form, re-padding components. Returns an error for
// anything that is not a three-part numeric date.
func NormalizeROCKey(s string) (string, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' })
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid roc date %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year <= 0 {
		return "", fmt.Errorf("invalid roc year in %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("invalid roc month in %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return "", fmt.Errorf("invalid roc day in %q", s)
	}
	return fmt.Sprintf("%03d-%02d-%02d", year, month, day), nil
}

// ParseROCKey parses a canonical key back into a time.Time (UTC midnight).
func ParseROCKey(key string) (time.Time, error) {
	norm, err := NormalizeROCKey(key)
	if err != nil {
		return time.Time{}, err
	}
	parts := strings.SplitN(norm, "-", 3)
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])
	return time.Date(year+rocYearOffset, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}
