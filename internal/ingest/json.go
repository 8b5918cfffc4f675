package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rowpipe/rowpipe/internal/value"
)

// ReadJSON decodes a JSON array of flattened objects into column summaries
// and a dataset. Field order is alphabetical, base-letter-insensitive.
func ReadJSON(data []byte, exampleLimit int) ([]FieldExample, value.Dataset, error) {
	var objects []map[string]interface{}
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, nil, fmt.Errorf("decoding JSON dataset: %w", err)
	}
	return FromMaps(objects, exampleLimit)
}

// FromMaps converts flattened objects into a dataset, one column per distinct
// field. Missing fields become null cells so row width stays constant.
func FromMaps(objects []map[string]interface{}, exampleLimit int) ([]FieldExample, value.Dataset, error) {
	examples := JSONFieldExamples(objects, exampleLimit)

	rows := make(value.Dataset, len(objects))
	for i, obj := range objects {
		row := make(value.Row, len(examples))
		for j, ex := range examples {
			if raw, ok := obj[ex.Name]; ok {
				row[j] = value.FromAny(raw)
			} else {
				row[j] = value.Null()
			}
		}
		rows[i] = row
	}
	return examples, rows, nil
}

// JSONFieldExamples summarizes every field across the objects: a
// frequency-ranked value sample, array and null flags, and distinct counts.
func JSONFieldExamples(objects []map[string]interface{}, limit int) []FieldExample {
	type fieldState struct {
		counter  *exampleCounter
		isArray  bool
		hasNulls bool
	}
	fields := make(map[string]*fieldState)
	var order []string

	for _, obj := range objects {
		for k, raw := range obj {
			state, ok := fields[k]
			if !ok {
				state = &fieldState{counter: newExampleCounter()}
				fields[k] = state
				order = append(order, k)
			}
			v := value.FromAny(raw)
			if v.IsNull() {
				state.hasNulls = true
				continue
			}
			if s, isStr := v.AsString(); isStr {
				if strings.TrimSpace(s) == "" {
					state.hasNulls = true
					continue
				}
				truncated := truncateExample(s)
				state.counter.add(truncated, value.Str(truncated))
				continue
			}
			if _, isArr := v.AsArray(); isArr {
				state.isArray = true
			}
			state.counter.add(v.Key(), v)
		}
	}

	collator := collate.New(language.Und, collate.Loose)
	sort.SliceStable(order, func(i, j int) bool {
		return collator.CompareString(order[i], order[j]) < 0
	})

	out := make([]FieldExample, len(order))
	for i, name := range order {
		state := fields[name]
		out[i] = FieldExample{
			Name:     name,
			Examples: state.counter.top(limit),
			IsArray:  state.isArray,
			HasNulls: state.hasNulls,
			Distinct: state.counter.distinct(),
		}
	}
	return out
}
