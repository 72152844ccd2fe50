package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/payout-engine/generic"
)

func thresholdCommand(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Inspect first threshold crossings",
	}

	getCmd := &cobra.Command{
		Use:   "get <creator-id>",
		Short: "Show one creator's first crossing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Threshold(cmd.Context(), args[0])
			if err != nil {
				if generic.IsNotFound(err) {
					return fmt.Errorf("creator %q has not reached the threshold", args[0])
				}
				return err
			}
			return printThresholds(cmd.OutOrStdout(), []generic.ThresholdRecord{rec})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every first crossing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.ListThresholds(cmd.Context())
			if err != nil {
				return err
			}
			return printThresholds(cmd.OutOrStdout(), recs)
		},
	}

	cmd.AddCommand(getCmd, listCmd)
	return cmd
}

func printThresholds(w io.Writer, recs []generic.ThresholdRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATOR\tFIRST PERIOD\tRECORDED AT")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.CreatorID, r.FirstReachedPeriod, r.RecordedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
