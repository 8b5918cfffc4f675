package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowpipe/rowpipe/internal/ingest"
	"github.com/rowpipe/rowpipe/internal/value"
)

type describeOptions struct {
	Examples int
	Sample   int
}

func newDescribeCommand(root *rootOptions) *cobra.Command {
	opts := &describeOptions{}

	cmd := &cobra.Command{
		Use:   "describe <dataset>",
		Short: "Summarize a dataset's columns as JSON",
		Long: "describe prints one summary per column: a frequency-ranked sample of its\n" +
			"values plus array/null flags and a distinct count. The output is the shape\n" +
			"a plan producer needs to write operations against the dataset.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return describeDataset(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Examples, "examples", 10, "maximum example values per column")
	cmd.Flags().IntVar(&opts.Sample, "sample", 0, "summarize a random sample of this many rows (0 = all)")

	return cmd
}

func describeDataset(cmd *cobra.Command, opts *describeOptions, dataFile string) error {
	columns, rows, err := loadDataset(dataFile)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	if opts.Sample > 0 && opts.Sample < len(rows) {
		rows = value.Dataset(ingest.Sample([]value.Row(rows), opts.Sample, nil))
	}

	examples := ingest.CSVColumnExamples(columns, rows, opts.Examples)
	encoded, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
