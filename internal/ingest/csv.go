package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/rowpipe/rowpipe/internal/value"
)

var reHeaderSuffix = regexp.MustCompile(`\(\d+\)$`)

// ReadCSV parses CSV input. The first record is the header row; blank or
// duplicate header cells are repaired with FillEmptyColumnNames. Every cell
// is kept as a string; coercion happens inside the operators.
func ReadCSV(r io.Reader) ([]string, value.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, value.Dataset{}, nil
	}

	columns := FillEmptyColumnNames(records[0])
	rows := make(value.Dataset, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(value.Row, len(columns))
		for i := range columns {
			if i < len(record) && record[i] != "" {
				row[i] = value.Str(record[i])
			} else {
				row[i] = value.Null()
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// FillEmptyColumnNames repairs a header row: blank headers become #N, dots
// become underscores so headers never collide with sub-property references,
// and duplicates get a (2), (3), ... suffix.
func FillEmptyColumnNames(headers []string) []string {
	used := make(map[string]struct{}, len(headers))
	out := make([]string, len(headers))
	for i, header := range headers {
		h := strings.TrimSpace(header)
		if h == "" {
			h = fmt.Sprintf("#%d", i+1)
		}
		h = strings.ReplaceAll(h, ". ", " ")
		h = strings.TrimSpace(strings.ReplaceAll(h, ".", "_"))
		if _, dup := used[h]; dup {
			for j := 2; ; j++ {
				candidate := reHeaderSuffix.ReplaceAllString(h, "") + fmt.Sprintf("(%d)", j)
				if _, taken := used[candidate]; !taken {
					h = candidate
					break
				}
			}
		}
		used[h] = struct{}{}
		out[i] = h
	}
	return out
}

// WriteCSV renders a dataset (header row included) back to CSV. Numbers are
// formatted for the locale with at most six fraction digits; other cells use
// their display form.
func WriteCSV(w io.Writer, ds value.Dataset, locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	printer := message.NewPrinter(tag)

	writer := csv.NewWriter(w)
	for _, row := range ds {
		record := make([]string, len(row))
		for i, cell := range row {
			if n, ok := cell.AsNumber(); ok {
				record[i] = printer.Sprint(number.Decimal(n, number.MaxFractionDigits(6)))
			} else {
				record[i] = cell.Display()
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSVColumnExamples summarizes every column of a parsed CSV dataset,
// frequency-ranked and truncated to limit examples.
func CSVColumnExamples(columns []string, rows value.Dataset, limit int) []FieldExample {
	counters := make([]*exampleCounter, len(columns))
	nulls := make([]bool, len(columns))
	for i := range counters {
		counters[i] = newExampleCounter()
	}
	for _, row := range rows {
		for i := range columns {
			if i >= len(row) {
				break
			}
			s := strings.TrimSpace(row[i].Display())
			if row[i].IsNull() || s == "" {
				nulls[i] = true
				continue
			}
			truncated := truncateExample(s)
			counters[i].add(truncated, value.Str(truncated))
		}
	}

	out := make([]FieldExample, len(columns))
	for i, name := range columns {
		out[i] = FieldExample{
			Name:     name,
			Examples: counters[i].top(limit),
			HasNulls: nulls[i],
			Distinct: counters[i].distinct(),
		}
	}
	return out
}
