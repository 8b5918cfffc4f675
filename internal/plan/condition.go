package plan

import (
	"encoding/json"
	"strings"

	"github.com/rowpipe/rowpipe/internal/value"
)

// SupportedComparisonOperators lists every operator a comparison may carry
// after repair.
var SupportedComparisonOperators = []string{
	"==", "!=", "<", "<=", ">", ">=",
	"startsWith", "endsWith", "contains",
	"isNull", "isNotNull",
}

// StringOperators are the operators that always compare normalized strings.
var StringOperators = []string{"contains", "startsWith", "endsWith"}

// Comparison is a single column test.
type Comparison struct {
	Column              string
	DataType            string // "", "string", "number", "date"
	ColumnDateFormat    string
	Operator            string
	Not                 bool
	CompareTo           value.Value
	CompareToSet        bool // compareTo key present, even if explicitly null
	CompareToDateFormat string
}

// UnmarshalJSON implements json.Unmarshaler, tracking whether compareTo was
// present at all so an explicit null can be told apart from an omission.
func (c *Comparison) UnmarshalJSON(data []byte) error {
	var aux struct {
		Column              string          `json:"column"`
		DataType            string          `json:"dataType"`
		ColumnDateFormat    string          `json:"columnDateFormat"`
		Operator            string          `json:"operator"`
		Not                 bool            `json:"not"`
		CompareTo           json.RawMessage `json:"compareTo"`
		CompareToDateFormat string          `json:"compareToDateFormat"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Column = aux.Column
	c.DataType = aux.DataType
	c.ColumnDateFormat = aux.ColumnDateFormat
	c.Operator = aux.Operator
	c.Not = aux.Not
	c.CompareToDateFormat = aux.CompareToDateFormat
	c.CompareTo = value.Null()
	c.CompareToSet = aux.CompareTo != nil
	if c.CompareToSet {
		if err := json.Unmarshal(aux.CompareTo, &c.CompareTo); err != nil {
			return err
		}
	}
	return nil
}

// Condition is a node in a filter condition tree: a conjunction, a
// disjunction, or a leaf comparison.
type Condition struct {
	And        []*Condition
	Or         []*Condition
	Comparison *Comparison
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var probe struct {
		And json.RawMessage `json:"and"`
		Or  json.RawMessage `json:"or"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.And != nil {
		return json.Unmarshal(probe.And, &c.And)
	}
	if probe.Or != nil {
		return json.Unmarshal(probe.Or, &c.Or)
	}
	c.Comparison = &Comparison{}
	return json.Unmarshal(data, c.Comparison)
}

// MarshalJSON implements json.Marshaler, mirroring the wire shape.
func (c Condition) MarshalJSON() ([]byte, error) {
	switch {
	case len(c.And) > 0:
		return json.Marshal(struct {
			And []*Condition `json:"and"`
		}{And: c.And})
	case len(c.Or) > 0:
		return json.Marshal(struct {
			Or []*Condition `json:"or"`
		}{Or: c.Or})
	case c.Comparison != nil:
		return json.Marshal(c.Comparison)
	default:
		return []byte("{}"), nil
	}
}

// MarshalJSON implements json.Marshaler.
func (c Comparison) MarshalJSON() ([]byte, error) {
	type wire struct {
		Column              string       `json:"column"`
		DataType            string       `json:"dataType,omitempty"`
		ColumnDateFormat    string       `json:"columnDateFormat,omitempty"`
		Operator            string       `json:"operator"`
		Not                 bool         `json:"not,omitempty"`
		CompareTo           *value.Value `json:"compareTo,omitempty"`
		CompareToDateFormat string       `json:"compareToDateFormat,omitempty"`
	}
	w := wire{
		Column:              c.Column,
		DataType:            c.DataType,
		ColumnDateFormat:    c.ColumnDateFormat,
		Operator:            c.Operator,
		Not:                 c.Not,
		CompareToDateFormat: c.CompareToDateFormat,
	}
	if c.CompareToSet {
		w.CompareTo = &c.CompareTo
	}
	return json.Marshal(w)
}

// Repaired returns a copy of the tree with the common plan malformations
// fixed: a "!" bolted onto a string operator becomes the operator plus
// not:true, and equality against an explicit null becomes isNull/isNotNull.
func (c *Condition) Repaired() *Condition {
	if c == nil {
		return nil
	}
	if len(c.And) > 0 {
		out := &Condition{And: make([]*Condition, len(c.And))}
		for i, child := range c.And {
			out.And[i] = child.Repaired()
		}
		return out
	}
	if len(c.Or) > 0 {
		out := &Condition{Or: make([]*Condition, len(c.Or))}
		for i, child := range c.Or {
			out.Or[i] = child.Repaired()
		}
		return out
	}
	if c.Comparison == nil {
		return c
	}

	cmp := *c.Comparison

	if rest, ok := strings.CutPrefix(cmp.Operator, "!"); ok {
		switch rest {
		case "startsWith", "endsWith", "contains", "isNull":
			cmp.Operator = rest
			cmp.Not = true
		}
	}

	if cmp.CompareToSet && cmp.CompareTo.IsNull() && (cmp.Operator == "==" || cmp.Operator == "!=") {
		cmp.Not = cmp.Operator == "!="
		cmp.Operator = "isNull"
	}

	return &Condition{Comparison: &cmp}
}
