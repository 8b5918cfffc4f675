// Package coerce implements the heuristic type-coercion layer: string
// normalization for column matching, locale-ambiguous number parsing, and
// best-effort date parsing with format detection.
//
// Everything here is deliberately forgiving: malformed input resolves to a
// "no value" result, never a panic or error, because cell contents come from
// arbitrary real-world datasets with no schema.
package coerce

import (
	"strings"

	"github.com/rowpipe/rowpipe/internal/value"
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"’", "'", // right single quote
	" ", " ", // non-breaking space
)

// NormalizeString canonicalizes a string for column-name matching and string
// comparison: trims whitespace, maps visually equivalent quote and space
// characters to ASCII, strips a leading @ (to account for @mentions), and
// lower-cases.
func NormalizeString(s string) string {
	s = quoteReplacer.Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}

// Normalize renders a cell as a normalized string. Null cells report ok=false;
// every other kind is stringified first.
func Normalize(v value.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	return NormalizeString(v.Display()), true
}

// NormalizeColumns normalizes every column name for resolution.
func NormalizeColumns(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = NormalizeString(c)
	}
	return out
}
