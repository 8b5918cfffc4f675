// Package plan defines the declarative operation plan the engine executes.
//
// Plans arrive as JSON produced by a language model, so decoding is paired
// with a repair pass that fixes the common malformations (negated string
// operators spelled "!contains", null equality spelled "== null") before
// validation ever sees them.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/rowpipe/rowpipe/internal/errors"
	"github.com/rowpipe/rowpipe/internal/value"
)

// Operation is one step of a plan. Concrete types are the only
// implementations.
type Operation interface {
	// Name returns the operation tag as it appears in the plan JSON.
	Name() string
}

// Plan is an ordered list of operations applied left to right.
type Plan struct {
	Operations []Operation
}

// Aggregation names an aggregate function over a column.
type Aggregation struct {
	Column   string `json:"column"`
	Function string `json:"function"`
	As       string `json:"as"`
}

// AggregationList accepts either a single aggregation object or an array of
// them, which generated plans use interchangeably.
type AggregationList []Aggregation

// UnmarshalJSON implements json.Unmarshaler.
func (a *AggregationList) UnmarshalJSON(data []byte) error {
	var many []Aggregation
	if err := json.Unmarshal(data, &many); err == nil {
		*a = many
		return nil
	}
	var one Aggregation
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*a = AggregationList{one}
	return nil
}

// FilterOp keeps rows satisfying a condition tree.
type FilterOp struct {
	Condition *Condition `json:"condition"`
}

func (*FilterOp) Name() string { return "filter" }

// GroupByOp groups rows by key columns and aggregates each group.
type GroupByOp struct {
	Columns      []string        `json:"columns"`
	Aggregations AggregationList `json:"aggregations"`
}

func (*GroupByOp) Name() string { return "groupBy" }

// OrderByOp sorts rows by one column.
type OrderByOp struct {
	Column     string `json:"column"`
	Direction  string `json:"direction"`
	SortType   string `json:"sortType"`
	DateFormat string `json:"dateFormat"`
}

func (*OrderByOp) Name() string { return "orderBy" }

// SelectOp projects columns or computes whole-table aggregations. Exactly one
// of Columns or Aggregations is expected.
type SelectOp struct {
	Columns      []string        `json:"columns"`
	Distinct     bool            `json:"distinct"`
	Aggregations AggregationList `json:"aggregations"`
}

func (*SelectOp) Name() string { return "select" }

// MapColumnOp applies a scalar function to one column.
type MapColumnOp struct {
	Column      string      `json:"column"`
	Function    string      `json:"function"`
	FunctionArg value.Value `json:"functionArg"`
	As          string      `json:"as"`
}

func (*MapColumnOp) Name() string { return "mapColumn" }

// CombineColumnsOp folds two or more columns row-wise into a new column.
type CombineColumnsOp struct {
	Columns  []string `json:"columns"`
	Function string   `json:"function"`
	As       string   `json:"as"`
}

func (*CombineColumnsOp) Name() string { return "combineColumns" }

// ConvertUnitsOp converts a numeric column between units or currencies.
type ConvertUnitsOp struct {
	Column string `json:"column"`
	From   string `json:"from"`
	To     string `json:"to"`
	As     string `json:"as"`
}

func (*ConvertUnitsOp) Name() string { return "convertUnits" }

// DateDiffOp computes the signed difference between two date endpoints, each
// either a column name or a literal date.
type DateDiffOp struct {
	Interval          string `json:"interval"`
	StartColumnOrDate string `json:"startColumnOrDate"`
	StartDateFormat   string `json:"startDateFormat"`
	EndColumnOrDate   string `json:"endColumnOrDate"`
	EndDateFormat     string `json:"endDateFormat"`
	As                string `json:"as"`
}

func (*DateDiffOp) Name() string { return "dateDiff" }

// FormatDatesOp rewrites a date column from one display format to another.
type FormatDatesOp struct {
	Column        string `json:"column"`
	CurrentFormat string `json:"currentFormat"`
	DesiredFormat string `json:"desiredFormat"`
	As            string `json:"as"`
}

func (*FormatDatesOp) Name() string { return "formatDates" }

// UnwindArrayOp expands an array column to one row per element.
type UnwindArrayOp struct {
	Column string `json:"column"`
}

func (*UnwindArrayOp) Name() string { return "unwindArray" }

// LimitOp keeps the first Amount rows.
type LimitOp struct {
	Amount int `json:"amount"`
}

func (*LimitOp) Name() string { return "limit" }

// OffsetOp skips the first Amount rows.
type OffsetOp struct {
	Amount int `json:"amount"`
}

func (*OffsetOp) Name() string { return "offset" }

// DropOp discards the dataset. Only honored as the sole operation of a plan.
type DropOp struct{}

func (*DropOp) Name() string { return "drop" }

// operationFor returns a zero operation for a tag.
func operationFor(tag string) (Operation, bool) {
	switch tag {
	case "filter":
		return &FilterOp{}, true
	case "groupBy":
		return &GroupByOp{}, true
	case "orderBy":
		return &OrderByOp{}, true
	case "select":
		return &SelectOp{}, true
	case "mapColumn":
		return &MapColumnOp{}, true
	case "combineColumns":
		return &CombineColumnsOp{}, true
	case "convertUnits":
		return &ConvertUnitsOp{}, true
	case "dateDiff":
		return &DateDiffOp{}, true
	case "formatDates":
		return &FormatDatesOp{}, true
	case "unwindArray":
		return &UnwindArrayOp{}, true
	case "limit":
		return &LimitOp{}, true
	case "offset":
		return &OffsetOp{}, true
	case "drop":
		return &DropOp{}, true
	default:
		return nil, false
	}
}

// UnmarshalJSON implements json.Unmarshaler, dispatching each step on its
// "op" tag.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var raw struct {
		Operations []json.RawMessage `json:"operations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding plan: %w", err)
	}

	ops := make([]Operation, 0, len(raw.Operations))
	for i, msg := range raw.Operations {
		var tagged struct {
			Op string `json:"op"`
		}
		if err := json.Unmarshal(msg, &tagged); err != nil {
			return fmt.Errorf("decoding operation %d: %w", i, err)
		}
		op, ok := operationFor(tagged.Op)
		if !ok {
			return errors.NewUnknownOperationError(tagged.Op)
		}
		if err := json.Unmarshal(msg, op); err != nil {
			return fmt.Errorf("decoding %s operation: %w", tagged.Op, err)
		}
		ops = append(ops, op)
	}
	p.Operations = ops
	return nil
}

// MarshalJSON implements json.Marshaler, restoring each step's "op" tag so a
// decoded plan renders back in its wire shape, e.g. for logging.
func (p Plan) MarshalJSON() ([]byte, error) {
	steps := make([]json.RawMessage, len(p.Operations))
	for i, op := range p.Operations {
		body, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("encoding %s operation: %w", op.Name(), err)
		}
		tagged := fmt.Sprintf(`{"op":%q}`, op.Name())
		if len(body) > 2 {
			tagged = fmt.Sprintf(`{"op":%q,%s`, op.Name(), body[1:])
		}
		steps[i] = json.RawMessage(tagged)
	}
	return json.Marshal(struct {
		Operations []json.RawMessage `json:"operations"`
	}{Operations: steps})
}

// Parse decodes a plan from JSON, repairing filter conditions in place.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	for _, op := range p.Operations {
		if f, ok := op.(*FilterOp); ok && f.Condition != nil {
			f.Condition = f.Condition.Repaired()
		}
	}
	return &p, nil
}
