package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rowpipe/rowpipe"
	"github.com/rowpipe/rowpipe/internal/config"
	"github.com/rowpipe/rowpipe/internal/ingest"
)

type runOptions struct {
	PlanFile string
	Output   string
	Quiet    bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run --plan plan.json <dataset>",
		Short: "Execute a plan against a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.PlanFile, "plan", "p", "", "path to the JSON plan (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "table", "output format (table|csv)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress the narration on stderr")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

func runPlan(cmd *cobra.Command, root *rootOptions, opts *runOptions, dataFile string) error {
	if opts.Output != "table" && opts.Output != "csv" {
		return fmt.Errorf("invalid output format %q: must be table or csv", opts.Output)
	}

	cfg := config.NewConfig()
	if root.ConfigFile != "" {
		loaded, err := config.LoadFromFile(root.ConfigFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	planJSON, err := os.ReadFile(opts.PlanFile)
	if err != nil {
		return fmt.Errorf("reading plan: %w", err)
	}

	columns, rows, err := loadDataset(dataFile)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	pipelineOpts := []rowpipe.Option{rowpipe.WithConfig(cfg)}
	if logger := root.logger(); logger != nil {
		pipelineOpts = append(pipelineOpts, rowpipe.WithLogger(logger))
	}
	pipeline := rowpipe.New(pipelineOpts...)
	defer pipeline.Close()

	result, err := pipeline.ExecuteJSON(cmd.Context(), columns, rows, planJSON)
	if err != nil {
		return err
	}

	if !opts.Quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), result.OpsString)
		for _, warning := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
		}
	}

	if opts.Output == "csv" {
		return ingest.WriteCSV(cmd.OutOrStdout(), result.Dataset, cfg.DefaultLocale)
	}
	return renderTable(cmd, result.Dataset)
}

func renderTable(cmd *cobra.Command, ds rowpipe.Dataset) error {
	if len(ds) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	header := make([]string, len(ds[0]))
	for i, cell := range ds[0] {
		header[i] = cell.Display()
	}
	table.SetHeader(header)

	for _, row := range ds[1:] {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = cell.Display()
		}
		table.Append(record)
	}
	table.Render()
	return nil
}
