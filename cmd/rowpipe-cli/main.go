// Command rowpipe-cli runs a JSON operation plan against a CSV, JSON, or
// parquet dataset and renders the result.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
