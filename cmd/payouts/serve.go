package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/payout-engine/app"
	"go.uber.org/fx"
)

func serveCommand(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Serve the payout API, threshold records, assistant and /metrics until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fxApp := fx.New(
				app.Module,
				fx.Supply(ctx.cfg),
				fx.Invoke(app.RunServer),
			)
			if err := fxApp.Err(); err != nil {
				return err
			}
			fxApp.Run()
			return nil
		},
	}

	fs := cmd.Flags()
	fs.String("port", "", "HTTP listen port")
	fs.String("assistant-api-key", "", "Text-generation API key (offline when empty)")
	fs.String("assistant-base-url", "", "Text-generation API base URL")
	fs.Duration("assistant-timeout", 0, "Text-generation request timeout")

	return cmd
}
