package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rangectl",
		Short: "Inspect chunked range sync decisions",
		Long: `rangectl runs the same range reconciliation the server does against a
local JSON file of items, and encodes or decodes the opaque range tokens
used by GET /v1/collections/{collection}/ranges.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRangesCmd())
	root.AddCommand(newTokenCmd())
	return root
}
