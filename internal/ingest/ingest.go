// Package ingest loads tabular data from CSV, flattened JSON, Arrow record
// batches, and parquet files into datasets, and summarizes columns for plan
// producers.
package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/rowpipe/rowpipe/internal/value"
)

// FieldExample summarizes one column for a plan producer: a frequency-ranked
// sample of its values plus shape hints.
type FieldExample struct {
	Name     string        `json:"name"`
	Examples []value.Value `json:"examples"`
	IsArray  bool          `json:"isArray,omitempty"`
	HasNulls bool          `json:"hasNulls"`
	Distinct int           `json:"distinct"`
}

const exampleMaxLen = 36

// truncateExample caps example strings for token length safety, cutting on a
// rune boundary so multi-byte text stays valid. ISO timestamps (24 chars) fit
// untouched.
func truncateExample(s string) string {
	if utf8.RuneCountInString(s) <= exampleMaxLen {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:exampleMaxLen])) + "…"
}

// exampleCounter accumulates distinct values with frequencies in first-seen
// order so ties rank deterministically.
type exampleCounter struct {
	counts  map[string]int
	ordered []string
	values  map[string]value.Value
}

func newExampleCounter() *exampleCounter {
	return &exampleCounter{
		counts: make(map[string]int),
		values: make(map[string]value.Value),
	}
}

func (c *exampleCounter) add(key string, v value.Value) {
	if _, seen := c.counts[key]; !seen {
		c.ordered = append(c.ordered, key)
		c.values[key] = v
	}
	c.counts[key]++
}

func (c *exampleCounter) distinct() int { return len(c.counts) }

// top returns the limit most frequent values, most frequent first.
func (c *exampleCounter) top(limit int) []value.Value {
	keys := append([]string(nil), c.ordered...)
	// insertion sort keeps first-seen order between equal counts
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && c.counts[keys[j]] > c.counts[keys[j-1]]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		out[i] = c.values[k]
	}
	return out
}
