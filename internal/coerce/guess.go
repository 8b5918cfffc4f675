package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reSlashDate = regexp.MustCompile(`^(\d{1,4})/(\d{1,2})/(\d{1,4})$`)

type positionStats struct {
	cardinality map[string]struct{}
	leadingZero bool
	max         int
	min         int
}

func newPositionStats() *positionStats {
	return &positionStats{cardinality: map[string]struct{}{}}
}

func (p *positionStats) observe(s string) {
	if strings.HasPrefix(s, "0") {
		p.leadingZero = true
	}
	p.cardinality[s] = struct{}{}
	n, _ := strconv.Atoi(s)
	if n > p.max {
		p.max = n
	}
	if n < p.min {
		p.min = n
	}
}

func (p *positionStats) dayTokens() string {
	if p.leadingZero {
		return "dd"
	}
	return "d"
}

func (p *positionStats) monthTokens() string {
	if p.leadingZero {
		return "MM"
	}
	return "M"
}

func (p *positionStats) yearTokens() string {
	if p.max > 999 {
		return "yyyy"
	}
	return "yy"
}

// GuessDateFormat infers whether a column of "#/#/#" strings is day/month/year
// or month/day/year by looking at the whole column: a position whose values
// exceed 12 must be the day, leading zeros pick padded tokens, and when no
// value exceeds 12 the higher-cardinality position is assumed to be the day.
// It reports ok=false when the column holds anything besides slash dates.
func GuessDateFormat(vals []string) (string, bool) {
	var withDigits, slashDates int
	a, b, c := newPositionStats(), newPositionStats(), newPositionStats()

	for _, s := range vals {
		trimmed := strings.TrimSpace(s)
		if !reHasDigit.MatchString(trimmed) {
			continue
		}
		withDigits++
		m := reSlashDate.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		slashDates++
		a.observe(m[1])
		b.observe(m[2])
		c.observe(m[3])
	}

	if slashDates == 0 || withDigits > slashDates {
		return "", false
	}

	var fa, fb, fc string
	switch {
	case a.max > 12 && a.max < 32:
		// a must be the days; assume b months and c years
		fa, fb, fc = a.dayTokens(), b.monthTokens(), c.yearTokens()
	case b.max > 12 && b.max < 32:
		// b must be the days
		fa, fb, fc = a.monthTokens(), b.dayTokens(), c.yearTokens()
	case a.max > 31:
		// perhaps it's yyyy/MM/dd
		fa, fb, fc = a.yearTokens(), b.monthTokens(), c.dayTokens()
	default:
		// nothing obvious, guess based on cardinality
		if len(a.cardinality) > len(b.cardinality) {
			fa, fb = a.dayTokens(), b.monthTokens()
		} else {
			fa, fb = a.monthTokens(), b.dayTokens()
		}
		fc = c.yearTokens()
	}

	return fmt.Sprintf("%s/%s/%s", fa, fb, fc), true
}
