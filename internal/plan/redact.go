package plan

import "regexp"

// Plans embed user data in column names and comparison literals, so logged
// plans get those fields blanked while the structure stays inspectable.
var (
	redactScalar = regexp.MustCompile(`(?i)("(?:column|as|value)":\s?").*?("(?:,|\}))`)
	redactList   = regexp.MustCompile(`(?i)("(?:columns|values)":\s?\[).*?(\](?:,|\}))`)
)

// Redact blanks column names and literal values out of a JSON-encoded plan.
func Redact(planJSON string) string {
	out := redactScalar.ReplaceAllString(planJSON, "${1}${2}")
	return redactList.ReplaceAllString(out, "${1}${2}")
}
