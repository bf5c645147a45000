package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erauner12/rangle-api/internal/rangle"
	"github.com/erauner12/rangle-api/internal/syncx"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Encode or decode opaque range tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "encode range...",
		Short: "Pack ranges into a token",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rangle.ParseRanges(args); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), syncx.EncodeRanges(args))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode token",
		Short: "Unpack a token into its ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges, ok := syncx.DecodeRanges(args[0])
			if !ok {
				return errors.New("invalid token")
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ranges, " "))
			return nil
		},
	})

	return cmd
}
