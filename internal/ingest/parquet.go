package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/rowpipe/rowpipe/internal/value"
)

// ReadParquet reads a parquet file into column names and a dataset. The
// whole file is buffered because parquet readers need random access.
func ReadParquet(ctx context.Context, r io.Reader) ([]string, value.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read parquet input: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	defer table.Release()

	columns := make([]string, table.NumCols())
	for i := range columns {
		columns[i] = table.Schema().Field(i).Name
	}

	rows := make(value.Dataset, table.NumRows())
	for i := range rows {
		rows[i] = make(value.Row, len(columns))
	}
	for c := 0; c < int(table.NumCols()); c++ {
		col := table.Column(c)
		r := 0
		for _, chunk := range col.Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				rows[r][c] = arrowValue(chunk, i)
				r++
			}
		}
	}
	return columns, rows, nil
}
