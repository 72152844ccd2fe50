package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/generic/store"
	"github.com/warp/payout-engine/rewards"
	"github.com/warp/payout-engine/tabular"
)

// errMappingIncomplete makes the process exit non-zero after the warnings
// have been printed.
var errMappingIncomplete = errors.New("column mapping incomplete, nothing computed")

type computeOptions struct {
	input   string
	output  string
	period  string
	mapping map[string]string
	dryRun  bool
	verbose bool
}

func computeCommand(ctx *cliContext) *cobra.Command {
	opts := &computeOptions{}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Score a CSV export",
		Long: `Read a CSV export, compute tiers, eligibility and rewards for the period,
and write the annotated CSV. First threshold crossings are recorded in the
database unless --dry-run is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(cmd, ctx, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.input, "input", "i", "", "CSV export to score (required)")
	fs.StringVarP(&opts.output, "output", "o", "-", "Annotated CSV destination, - for stdout")
	fs.StringVarP(&opts.period, "period", "p", string(generic.MonthLabel(time.Now())), "Period label")
	fs.StringToStringVarP(&opts.mapping, "map", "m", nil, "Logical field to column, e.g. creator_id=\"Creator ID\"")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Read recorded thresholds but record nothing")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Print one verdict line per row to stderr")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runCompute(cmd *cobra.Command, ctx *cliContext, opts *computeOptions) error {
	rs, err := ctx.ruleset()
	if err != nil {
		return err
	}

	mapping, err := rewards.ParseMapping(opts.mapping)
	if err != nil {
		return err
	}

	table, err := readTable(opts.input)
	if err != nil {
		return err
	}

	st, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var ts generic.ThresholdStore = st
	if opts.dryRun {
		ts = store.NewOverlay(st)
	}

	engine := rewards.NewEngine(rs, ts)
	runCtx := ctx.logger.WithContext(cmd.Context())

	res, err := engine.Compute(runCtx, table, mapping, opts.period)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if len(res.Warnings) > 0 {
		for _, w := range res.Warnings {
			fmt.Fprintln(stderr, w)
		}
		return errMappingIncomplete
	}

	if opts.verbose {
		for _, row := range res.Rows {
			fmt.Fprintf(stderr, "%s\t%s\n", row.Row.CreatorID, row.Describe())
		}
	}

	if err := writeTable(cmd.OutOrStdout(), opts.output, res.Table); err != nil {
		return err
	}

	s := res.Summary
	fmt.Fprintf(stderr, "period %s: %d rows, %d eligible, %d excluded, total %d diamonds, %d new thresholds",
		res.Period, s.Rows, s.Eligible, s.Excluded, s.TotalReward, s.NewThresholds)
	if opts.dryRun {
		fmt.Fprint(stderr, " (dry run, nothing recorded)")
	}
	fmt.Fprintln(stderr)
	return nil
}

func readTable(path string) (*tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return tabular.ReadCSV(f)
}

func writeTable(stdout io.Writer, path string, t *tabular.Table) error {
	if path == "" || path == "-" {
		return t.WriteCSV(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
