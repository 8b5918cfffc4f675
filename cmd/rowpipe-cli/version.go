package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowpipe/rowpipe/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Current().String())
		},
	}
}
