package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rowpipe/rowpipe/internal/value"
)

var (
	reHasDigit       = regexp.MustCompile(`\d`)
	reBareInt        = regexp.MustCompile(`^-?\d+$`)
	reCurrencySymbol = regexp.MustCompile(`\p{Sc}`)
	reScientific     = regexp.MustCompile(`^\d+(?:\.\d+)?e\d+$`)
	reFormattedNum   = regexp.MustCompile(`^-?(?:\d{1,2}[,.\s])?(?:\d{3}[,.\s])*\d{1,3}(?:[,.]\d+)?\s?\p{L}*$`)
	reTrailingUnit   = regexp.MustCompile(`\s?\p{L}*$`)
	reMixedSepA      = regexp.MustCompile(`,.*?\..*?,`)
	reMixedSepB      = regexp.MustCompile(`\..*?,.*?\.`)
	reSpace          = regexp.MustCompile(`\s`)
	reLeadingZeroDec = regexp.MustCompile(`^0,`)
	reTrailingGroup  = regexp.MustCompile(`,\d{3}$`)
	reLongDecimal    = regexp.MustCompile(`^-?\d{4,}\.\d+$`)
)

// StringToNumber coerces a cell to a number. Numbers pass through (NaN and
// infinities do not count), booleans map to 0/1, and strings go through the
// separator heuristics below. Anything unparseable reports ok=false.
//
// Separator disambiguation follows a deliberate policy: when both "," and "."
// appear, their relative order decides which is the radix; a single separator
// repeated two or more times must be a thousands separator; and a lone
// separator that remains ambiguous (e.g. "1,234") defaults to the EN
// interpretation. Mixed patterns like "1,23.45,6" are rejected rather than
// silently guessed.
func StringToNumber(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.KindNumber:
		n, _ := v.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case value.KindBool:
		if b, _ := v.AsBool(); b {
			return 1, true
		}
		return 0, true
	case value.KindString:
		s, _ := v.AsString()
		return ParseNumber(s)
	default:
		return 0, false
	}
}

// ParseNumber applies the separator heuristics to a raw string.
func ParseNumber(s string) (float64, bool) {
	if !reHasDigit.MatchString(s) {
		return 0, false
	}

	st := strings.TrimSpace(s)
	if reBareInt.MatchString(st) {
		return parseFloat(st)
	}

	// string isn't just clean digits, but there are some

	if reCurrencySymbol.MatchString(s) {
		// possibly a monetary value, e.g. $12 | $3.45 | €1.234.567,89
		st = reCurrencySymbol.ReplaceAllString(st, "")
	}

	if reScientific.MatchString(st) {
		return parseFloat(st)
	}

	if reFormattedNum.MatchString(st) {
		// remove unit specifiers e.g. 123 USD | 12 bushels | 12.2 knots | 65 mph
		st = reTrailingUnit.ReplaceAllString(st, "")

		hasComma := strings.Contains(st, ",")
		hasDot := strings.Contains(st, ".")
		hasSpace := reSpace.MatchString(st)

		if !hasComma && !hasDot {
			return parseFloat(reSpace.ReplaceAllString(st, ""))
		}
		if reMixedSepA.MatchString(st) || reMixedSepB.MatchString(st) {
			// mixed delimiters, not a valid number
			return 0, false
		}
		if hasSpace && hasComma {
			return parseFloat(strings.Replace(reSpace.ReplaceAllString(st, ""), ",", ".", 1))
		}
		if hasSpace && hasDot {
			return parseFloat(reSpace.ReplaceAllString(st, ""))
		}

		if hasDot && hasComma {
			commaIdx := strings.Index(st, ",")
			dotIdx := strings.Index(st, ".")
			if commaIdx < dotIdx {
				// the radix character (decimal separator) is .
				return parseFloat(strings.ReplaceAll(st, ",", ""))
			}
			// the radix is ","
			cleaned := strings.NewReplacer(".", "", " ", "").Replace(st)
			return parseFloat(strings.Replace(cleaned, ",", ".", 1))
		}

		if hasDot {
			// the number 1.234 is ambiguous: EN reads 1.234, ES reads 1234.
			// We default to the EN interpretation.
			if strings.Count(st, ".") > 1 {
				// must be thousands
				return parseFloat(strings.ReplaceAll(st, ".", ""))
			}
			return parseFloat(st)
		}

		if hasComma {
			// the number 1,234 is ambiguous: EN reads 1234, ES reads 1.234.
			// We default to the EN interpretation.
			if strings.Count(st, ",") > 1 {
				// must be thousands
				return parseFloat(strings.ReplaceAll(st, ",", ""))
			}
			if reLeadingZeroDec.MatchString(st) {
				return parseFloat(strings.Replace(st, ",", ".", 1))
			}
			if reTrailingGroup.MatchString(st) {
				// treat as EN thousands
				return parseFloat(strings.ReplaceAll(st, ",", ""))
			}
			return parseFloat(strings.Replace(st, ",", ".", 1))
		}
	}

	// e.g. 6543.21
	if reLongDecimal.MatchString(st) {
		return parseFloat(st)
	}

	return 0, false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsFinite reports whether f is a usable number (not NaN or infinite).
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
