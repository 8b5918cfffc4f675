package coerce

import (
	"strings"
)

// FixTokens repairs common mistakes in LLM-provided date format strings:
// uppercase Y/D/A where lowercase is meant, lowercase w for uppercase W, and
// stray braces. A missing format stays missing.
func FixTokens(tokens string) string {
	if tokens == "" {
		return ""
	}
	r := strings.NewReplacer(
		"Y", "y",
		"D", "d",
		"A", "a",
		"w", "W",
		"{", "",
		"}", "",
	)
	return r.Replace(tokens)
}

// layoutFor maps a token letter and repeat count to a Go reference-layout
// fragment. Unknown tokens render as their literal text.
func layoutFor(letter rune, count int) string {
	switch letter {
	case 'y':
		switch count {
		case 2:
			return "06"
		default:
			return "2006"
		}
	case 'M':
		switch count {
		case 1:
			return "1"
		case 2:
			return "01"
		case 3:
			return "Jan"
		default:
			return "January"
		}
	case 'd':
		if count >= 2 {
			return "02"
		}
		return "2"
	case 'E':
		if count >= 4 {
			return "Monday"
		}
		return "Mon"
	case 'H':
		return "15"
	case 'h':
		if count >= 2 {
			return "03"
		}
		return "3"
	case 'm':
		if count >= 2 {
			return "04"
		}
		return "4"
	case 's':
		if count >= 2 {
			return "05"
		}
		return "5"
	case 'S':
		return strings.Repeat("0", count)
	case 'a':
		return "PM"
	case 'Z':
		if count >= 3 {
			return "-0700"
		}
		return "-07:00"
	default:
		return strings.Repeat(string(letter), count)
	}
}

// ToGoLayout translates a standalone-token format string (yyyy, MM, dd, HH,
// mm, ss, ...) into a Go time layout. Single-quoted sections pass through as
// literal text.
func ToGoLayout(tokens string) string {
	var sb strings.Builder
	runes := []rune(tokens)
	for i := 0; i < len(runes); {
		c := runes[i]
		if c == '\'' {
			// quoted literal, '' is an escaped quote
			i++
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						sb.WriteRune('\'')
						i += 2
						continue
					}
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			continue
		}
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			j := i
			for j < len(runes) && runes[j] == c {
				j++
			}
			sb.WriteString(layoutFor(c, j-i))
			i = j
			continue
		}
		sb.WriteRune(c)
		i++
	}
	return sb.String()
}
