// Package datenorm converts the free-form dates found on invoices into the
// yyyy/mm/dd form the accounting system expects.
package datenorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the canonical output format.
const Layout = "2006/01/02"

var (
	yearFirst = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	yearLast  = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})$`)
	dotted    = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	ordinal   = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
)

// Normalize returns input as yyyy/mm/dd.
//
// Rules, in order:
//   - yyyy-mm-dd or yyyy/mm/dd (anything after the day is ignored)
//   - a/b/yyyy or a-b-yyyy: day first when a > 12, month first when b > 12,
//     and month first when both could be a month
//   - dd.mm.yyyy
//   - anything else through a general-purpose date parser
//
// Dates that do not exist on the calendar are unparseable. Unparseable input
// is returned trimmed but otherwise unchanged; blank input gives "".
func Normalize(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if out, ok := Parse(s); ok {
		return out.Format(Layout)
	}
	return s
}

// Parse applies the Normalize rules and reports whether s was understood.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	if m := yearFirst.FindStringSubmatch(s); m != nil {
		return civil(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := yearLast.FindStringSubmatch(s); m != nil {
		a, b, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if a > 12 {
			return civil(year, b, a)
		}
		return civil(year, a, b)
	}
	if m := dotted.FindStringSubmatch(s); m != nil {
		return civil(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	return generic(s)
}

func generic(s string) (time.Time, bool) {
	cleaned := ordinal.ReplaceAllString(s, "$1")
	t, err := dateparse.ParseIn(cleaned, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// civil builds a date and rejects components that would roll over into a
// different day, such as February 30th.
func civil(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// atoi is only called on regexp digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
