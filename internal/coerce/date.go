package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rowpipe/rowpipe/internal/value"
)

// Every parse lands in UTC so that equal calendar dates compare equal
// regardless of the host timezone.

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102",
	"2006-01",
}

var rfc2822Layouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
}

var httpLayouts = []string{
	time.RFC1123,
	"Monday, 02-Jan-06 15:04:05 MST",
	time.ANSIC,
}

var (
	reOrdinalDay   = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\s`)
	reMonthFirst   = regexp.MustCompile(`^([A-Za-z]{3,9})[\s-](\d{1,2})[\s-](\d{1,4})$`)
	reDayFirst     = regexp.MustCompile(`^(\d{1,2})[\s-]([A-Za-z]{3,9})[\s-](\d{1,4})$`)
	reWeekdayStyle = regexp.MustCompile(`^[A-Za-z]{3,9}\s([A-Za-z]{3,9})\s(\d{1,2})\s(\d{4})$`)
	reFiscalQtr    = regexp.MustCompile(`(?i)Q([1234])\s?'?(?:FY)?(\d{2}|\d{4})$`)
	reBareYear     = regexp.MustCompile(`^\d{4}$`)
)

var monthAbbrevs = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// StringToDate coerces a cell to a date. Strings and numbers are run through
// the heuristic ladder in ParseDate; booleans, objects, and arrays never parse.
func StringToDate(v value.Value, formatHint string) (time.Time, bool) {
	switch v.Kind() {
	case value.KindString, value.KindNumber:
		return ParseDate(v.Display(), formatHint)
	default:
		return time.Time{}, false
	}
}

// ParseDate tries, in order: ISO 8601; the provided format hint; a fixed
// sequence of heuristic matchers ("Month D, Y", "D Month Y", weekday-prefixed
// date strings, RFC 2822, HTTP-date); and fiscal-quarter notation mapped to
// the quarter's first day. Malformed input reports ok=false, never an error.
func ParseDate(s string, formatHint string) (time.Time, bool) {
	str := strings.TrimSpace(s)
	if str == "" {
		return time.Time{}, false
	}

	if reBareYear.MatchString(str) {
		y, _ := strconv.Atoi(str)
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, str, time.UTC); err == nil {
			return t, true
		}
	}

	// if the plan provided a format guess, try that before our own heuristics
	if formatHint != "" {
		layout := ToGoLayout(FixTokens(formatHint))
		if t, err := time.ParseInLocation(layout, str, time.UTC); err == nil {
			return t, true
		}
	}

	// reduce the number of cases we need to handle
	simple := strings.ReplaceAll(str, ",", "")
	simple = reOrdinalDay.ReplaceAllString(simple, "$1 ")

	if !reHasDigit.MatchString(str) {
		return time.Time{}, false
	}

	// July 4th, 1776 | August 12 233 | Apr 4, 1998
	if m := reMonthFirst.FindStringSubmatch(simple); m != nil {
		return assembleDate(m[1], m[2], m[3])
	}

	// 2 Aug 1947 | 28-Dec-23 | 4-Jul-1776
	if m := reDayFirst.FindStringSubmatch(simple); m != nil {
		return assembleDate(m[2], m[1], m[3])
	}

	// locale toString style, e.g. Fri Sep 15 2023
	if m := reWeekdayStyle.FindStringSubmatch(simple); m != nil {
		return assembleDate(m[1], m[2], m[3])
	}

	for _, layout := range rfc2822Layouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range httpLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), true
		}
	}

	// fiscal calendar, e.g. Q3 2022 | Q4FY23 | Q1'22
	if m := reFiscalQtr.FindStringSubmatch(simple); m != nil {
		quarter, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if year < 100 {
			// shorthand year, convert to a full year
			if year > time.Now().UTC().Year()-2000+10 {
				year += 1900
			} else {
				year += 2000
			}
		}
		// exact fiscal quarter dates vary by company; for comparison and
		// ordering we assume the most common calendar-aligned quarters
		month := time.Month((quarter-1)*3 + 1)
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
	}

	// arbitrary numbers like 1542674993410 can't be reliably interpreted:
	// there is no way to tell seconds from milliseconds

	return time.Time{}, false
}

func assembleDate(monthStr, dayStr, yearStr string) (time.Time, bool) {
	month, ok := parseMonthName(monthStr)
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	if len(yearStr) == 2 {
		year = untruncateYear(year)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		// day overflowed the month, e.g. Feb 30
		return time.Time{}, false
	}
	return t, true
}

func parseMonthName(s string) (time.Month, bool) {
	lower := strings.ToLower(s)
	if len(lower) == 3 {
		m, ok := monthAbbrevs[lower]
		return m, ok
	}
	m, ok := monthNames[lower]
	return m, ok
}

// untruncateYear expands a two-digit year the way date libraries
// conventionally do: values above 60 land in the 1900s.
func untruncateYear(y int) int {
	if y > 60 {
		return 1900 + y
	}
	return 2000 + y
}

// FormatDate renders t using a standalone-token format string.
func FormatDate(t time.Time, tokens string) string {
	return t.Format(ToGoLayout(FixTokens(tokens)))
}
