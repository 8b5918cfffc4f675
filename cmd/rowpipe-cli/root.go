package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rowpipe/rowpipe/internal/ingest"
	"github.com/rowpipe/rowpipe/internal/value"
)

// rootOptions holds global flags shared by all subcommands.
type rootOptions struct {
	Verbose    bool
	ConfigFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rowpipe-cli",
		Short: "Run declarative operation plans against tabular data",
		Long: "rowpipe-cli executes a JSON plan of tabular operations (filter, groupBy,\n" +
			"orderBy, select, mapColumn, ...) against a CSV, JSON, or parquet dataset\n" +
			"and renders the transformed table plus a narration of what was done.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging to stderr")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to a JSON or YAML config file")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newDescribeCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (o *rootOptions) logger() *slog.Logger {
	if !o.Verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadDataset reads a dataset file, dispatching on its extension.
func loadDataset(path string) ([]string, value.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ingest.ReadCSV(f)
	case ".json":
		data, readErr := io.ReadAll(f)
		if readErr != nil {
			return nil, nil, readErr
		}
		examples, rows, jsonErr := ingest.ReadJSON(data, 0)
		if jsonErr != nil {
			return nil, nil, jsonErr
		}
		columns := make([]string, len(examples))
		for i, ex := range examples {
			columns[i] = ex.Name
		}
		return columns, rows, nil
	case ".parquet", ".pq":
		return ingest.ReadParquet(context.Background(), f)
	default:
		return nil, nil, fmt.Errorf("unsupported dataset format %q (want .csv, .json, or .parquet)", filepath.Ext(path))
	}
}
