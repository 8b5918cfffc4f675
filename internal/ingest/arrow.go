package ingest

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/rowpipe/rowpipe/internal/value"
)

// FromArrowRecord converts an Arrow record batch into column names and a
// dataset, for interchange with Arrow-based producers.
func FromArrowRecord(rec arrow.Record) ([]string, value.Dataset) {
	schema := rec.Schema()
	columns := make([]string, rec.NumCols())
	for i := range columns {
		columns[i] = schema.Field(i).Name
	}

	rows := make(value.Dataset, rec.NumRows())
	for r := 0; r < int(rec.NumRows()); r++ {
		row := make(value.Row, len(columns))
		for c := range columns {
			row[c] = arrowValue(rec.Column(c), r)
		}
		rows[r] = row
	}
	return columns, rows
}

func arrowValue(col arrow.Array, i int) value.Value {
	if col.IsNull(i) {
		return value.Null()
	}
	switch a := col.(type) {
	case *array.Boolean:
		return value.Bool(a.Value(i))
	case *array.String:
		return value.Str(a.Value(i))
	case *array.LargeString:
		return value.Str(a.Value(i))
	case *array.Int8:
		return value.Num(float64(a.Value(i)))
	case *array.Int16:
		return value.Num(float64(a.Value(i)))
	case *array.Int32:
		return value.Num(float64(a.Value(i)))
	case *array.Int64:
		return value.Num(float64(a.Value(i)))
	case *array.Uint8:
		return value.Num(float64(a.Value(i)))
	case *array.Uint16:
		return value.Num(float64(a.Value(i)))
	case *array.Uint32:
		return value.Num(float64(a.Value(i)))
	case *array.Uint64:
		return value.Num(float64(a.Value(i)))
	case *array.Float32:
		return value.Num(float64(a.Value(i)))
	case *array.Float64:
		return value.Num(a.Value(i))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return value.Str(a.Value(i).ToTime(unit).UTC().Format(time.RFC3339))
	case *array.Date32:
		return value.Str(a.Value(i).ToTime().UTC().Format("2006-01-02"))
	case *array.Date64:
		return value.Str(a.Value(i).ToTime().UTC().Format("2006-01-02"))
	case *array.List:
		start, end := a.ValueOffsets(i)
		items := make([]value.Value, 0, end-start)
		for j := start; j < end; j++ {
			items = append(items, arrowValue(a.ListValues(), int(j)))
		}
		return value.Array(items)
	default:
		return value.Str(col.ValueStr(i))
	}
}
