package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/restar/internal/config"
	"github.com/Sternrassler/restar/pkg/batch"
	"github.com/Sternrassler/restar/pkg/client"
	"github.com/Sternrassler/restar/pkg/logging"
	"github.com/Sternrassler/restar/pkg/metrics"
	"github.com/Sternrassler/restar/pkg/restar"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, client.DefaultBaseURL, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one restar pass and returns the process exit code.
// Successfully starred repositories are logged to stdout, everything else
// to stderr.
func run(ctx context.Context, baseURL string, stdout, stderr io.Writer) int {
	dotEnvErr := config.LoadDotEnv()

	logCfg := config.LoggingFromEnv()
	logCfg.Output = stderr
	logging.Setup(logCfg)
	logger := logging.NewLogger("main")

	if dotEnvErr != nil {
		logger.Warn().Err(dotEnvErr).Msg("Could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	logger.Info().
		Str("account", cfg.Account).
		Msg("Copying starred repositories")

	outCfg := logCfg
	outCfg.Output = stdout
	reporter := batch.NewSplitLogReporter(
		logging.New(outCfg).With().Str("component", "submitter").Logger(),
		logging.NewLogger("submitter"),
	)

	err = restar.Run(ctx, restar.Options{
		Account:  cfg.Account,
		Token:    cfg.Token,
		BaseURL:  baseURL,
		Reporter: reporter,
	})
	if err != nil {
		logger.Error().Err(err).Str("account", cfg.Account).Msg("Run failed")
		return 1
	}

	logger.Info().Msg("Done")

	if logging.ParseLevel(string(logCfg.Level)) == zerolog.DebugLevel {
		if err := metrics.WriteText(logCfg.Output); err != nil {
			logger.Debug().Err(err).Msg("Failed to write metrics")
		}
	}
	return 0
}
