package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/warp/payout-engine/config"
	"github.com/warp/payout-engine/factory"
	"github.com/warp/payout-engine/logging"
	"github.com/warp/payout-engine/rewards"
	"github.com/warp/payout-engine/store/sqlite"
)

// cliContext is shared by every subcommand. cfg and logger are set by the
// root PersistentPreRunE.
type cliContext struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     zerolog.Logger
}

// RootCommand creates the payouts command tree on top of v.
func RootCommand(v *viper.Viper) *cobra.Command {
	ctx := &cliContext{v: v, logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "payouts",
		Short:         "Creator payout rules engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	setupFlags(rootCmd, ctx)

	rootCmd.AddCommand(
		serveCommand(ctx),
		computeCommand(ctx),
		thresholdCommand(ctx),
		rulesetCommand(ctx),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.BindFlags(ctx.v, cmd.Flags()); err != nil {
			return err
		}

		cfg, err := config.Load(ctx.v, ctx.configFile)
		if err != nil {
			return err
		}
		ctx.cfg = cfg

		// Logs go to stderr so CSV and YAML on stdout stay clean.
		logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty)
		if err != nil {
			return err
		}
		ctx.logger = logger
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, ctx *cliContext) {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&ctx.configFile, "config", "", "Config file (default ./payouts.yaml when present)")
	pf.String("db-path", "", "SQLite database for threshold records")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.Bool("log-pretty", false, "Human-readable console logs")
	pf.String("ruleset", "", "Ruleset YAML/JSON file (default ruleset when empty)")
}

// openStore opens the configured SQLite store.
func (c *cliContext) openStore() (*sqlite.Store, error) {
	st, err := sqlite.New(c.cfg.DBPath, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// ruleset loads the configured ruleset.
func (c *cliContext) ruleset() (*rewards.Ruleset, error) {
	return factory.LoadRuleset(c.cfg.RulesetPath)
}
