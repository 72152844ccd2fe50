package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/payout-engine/factory"
)

func rulesetCommand(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ruleset",
		Short: "Inspect rulesets",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active ruleset as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := ctx.ruleset()
			if err != nil {
				return err
			}
			out, err := factory.MarshalRuleset(rs)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a ruleset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := factory.LoadRuleset(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ruleset %q is valid: %d tiers, threshold %s\n",
				rs.Version, len(rs.Tiers), rs.Threshold)
			return nil
		},
	}

	cmd.AddCommand(showCmd, validateCmd)
	return cmd
}
