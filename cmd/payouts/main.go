/*
main.go - payouts command-line entry point

PURPOSE:
  One binary for the payout service and its offline tools.

COMMANDS:
  serve                       HTTP API (fx app, graceful shutdown)
  compute                     Score a CSV export, write the annotated CSV
  threshold get <creator-id>  One first-crossing record
  threshold list              Every first-crossing record
  ruleset show                Active ruleset as YAML
  ruleset validate <file>     Parse and validate a ruleset file

CONFIGURATION:
  Flags, PAYOUTS_* environment variables, .env and payouts.yaml, in that
  order of precedence. See config/config.go.

EXAMPLES:
  payouts serve --port 3000 --db-path ./data/payouts.db
  payouts compute --input export.csv --period 2025-12 \
      --map creator_id="Creator ID",diamonds_month=Diamonds,... --dry-run
  payouts threshold list

SEE ALSO:
  - app/app.go: Service wiring
  - api/server.go: Routes
*/
package main

import (
	"os"

	"github.com/warp/payout-engine/config"
)

func main() {
	if err := RootCommand(config.New()).Execute(); err != nil {
		os.Exit(1)
	}
}
