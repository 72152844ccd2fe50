/*
Package app wires the payout service together with fx.

PROVIDERS:
  *config.Config           supplied by the caller (cmd/payouts loads it)
  zerolog.Logger           logging.New from log_level / log_pretty
  *metrics.Metrics         private prometheus registry
  generic.ThresholdLister  SQLite store, instrumented, closed on stop
  *rewards.Ruleset         default, or ruleset_path when set
  *rewards.Engine          ruleset + store
  *assistant.Client        offline when assistant.api_key is empty
  *api.Handler, http.Handler

USAGE:
  fx.New(app.Module, fx.Supply(cfg), fx.Invoke(app.RunServer)).Run()

SEE ALSO:
  - cmd/payouts/serve.go
*/
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/payout-engine/api"
	"github.com/warp/payout-engine/assistant"
	"github.com/warp/payout-engine/config"
	"github.com/warp/payout-engine/factory"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/logging"
	"github.com/warp/payout-engine/metrics"
	"github.com/warp/payout-engine/rewards"
	"github.com/warp/payout-engine/store/sqlite"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 30 * time.Second

// Module provides every dependency of the HTTP service except the config.
var Module = fx.Options(
	fx.Provide(NewLogger),
	fx.WithLogger(func(logger zerolog.Logger) fxevent.Logger {
		return &eventLogger{logger: logger}
	}),
	fx.Provide(metrics.New),
	fx.Provide(NewStore),
	fx.Provide(NewRuleset),
	fx.Provide(NewEngine),
	fx.Provide(NewAssistant),
	fx.Provide(NewHandler),
	fx.Provide(NewRouter),
)

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogPretty)
}

// NewStore opens the SQLite threshold store and closes it on stop.
func NewStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) (generic.ThresholdLister, error) {
	st, err := sqlite.New(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return st.Ping(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if err := st.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			return nil
		},
	})

	return m.InstrumentStore(st), nil
}

// NewRuleset loads cfg.RulesetPath, or the default ruleset when empty.
func NewRuleset(cfg *config.Config, logger zerolog.Logger) (*rewards.Ruleset, error) {
	rs, err := factory.LoadRuleset(cfg.RulesetPath)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("version", rs.Version).
		Int("tiers", len(rs.Tiers)).
		Str("path", cfg.RulesetPath).
		Msg("ruleset loaded")
	return rs, nil
}

// NewEngine binds the ruleset to the store.
func NewEngine(rs *rewards.Ruleset, st generic.ThresholdLister) *rewards.Engine {
	return rewards.NewEngine(rs, st)
}

// NewAssistant builds the text-generation client.
func NewAssistant(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *assistant.Client {
	return assistant.New(assistant.Options{
		APIKey:   cfg.Assistant.APIKey,
		BaseURL:  cfg.Assistant.BaseURL,
		Timeout:  cfg.Assistant.Timeout,
		Logger:   logger.With().Str("component", "assistant").Logger(),
		Observer: m,
	})
}

// NewHandler builds the API handler.
func NewHandler(engine *rewards.Engine, st generic.ThresholdLister, asst *assistant.Client, m *metrics.Metrics) *api.Handler {
	return api.NewHandler(engine, st, asst, m)
}

// NewRouter builds the HTTP handler tree.
func NewRouter(h *api.Handler, logger zerolog.Logger) http.Handler {
	return api.NewRouter(h, logger)
}

// RunServer starts the HTTP server on start and drains it on stop.
func RunServer(lc fx.Lifecycle, cfg *config.Config, handler http.Handler, logger zerolog.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// =============================================================================
// FX EVENT LOGGER
// =============================================================================

// eventLogger routes fx lifecycle events to zerolog.
type eventLogger struct {
	logger zerolog.Logger
}

func (l *eventLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("fx start hook failed")
		}
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("fx stop hook failed")
		}
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("fx provide failed")
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Str("function", e.FunctionName).Msg("fx invoke failed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("fx start failed")
		} else {
			l.logger.Debug().Msg("fx started")
		}
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error().Err(e.Err).Msg("fx stop failed")
		}
	}
}
