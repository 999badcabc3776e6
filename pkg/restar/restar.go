// Package restar stars, as the authenticated user, every repository that
// another account has starred.
package restar

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/restar/pkg/batch"
	"github.com/Sternrassler/restar/pkg/client"
	"github.com/Sternrassler/restar/pkg/logging"
	"github.com/Sternrassler/restar/pkg/ratelimit"
	"github.com/Sternrassler/restar/pkg/starred"
)

// Options configures one run.
type Options struct {
	// Account whose starred repositories are copied.
	Account string

	// Token of the account that stars.
	Token string

	// BaseURL overrides the GitHub API base URL.
	BaseURL string

	// GroupSize is the number of star requests in flight together.
	GroupSize int

	// RequestTimeout bounds each request. 0 keeps the client default.
	RequestTimeout time.Duration

	// Reporter receives star outcomes. nil logs them.
	Reporter batch.Reporter
}

// Run lists the account's starred repositories and stars each of them.
// Listing failures are returned; star failures are only reported.
func Run(ctx context.Context, opts Options) error {
	logger := logging.NewLogger("restar")

	cfg := client.DefaultConfig(opts.Token)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.RequestTimeout > 0 {
		cfg.Timeout = opts.RequestTimeout
	}

	api, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("create github client: %w", err)
	}

	lister := starred.NewLister(api, logging.NewLogger("lister"))
	items, err := lister.List(ctx, opts.Account)
	if err != nil {
		return err
	}

	urls := starred.TargetURLs(items, api.StarEndpoint())
	if skipped := len(items) - len(urls); skipped > 0 {
		logger.Debug().
			Int("skipped", skipped).
			Msg("Skipped listing entries without full_name")
	}

	batchCfg := batch.DefaultConfig()
	if opts.GroupSize > 0 {
		batchCfg.GroupSize = opts.GroupSize
	}

	submitter := batch.NewSubmitter(api, batchCfg, opts.Reporter, logging.NewLogger("submitter"))
	submitter.Submit(ctx, urls)

	if rl, ok := api.RateLimit(ratelimit.DefaultResource); ok {
		logger.Debug().
			Int("remaining", rl.Remaining).
			Int("limit", rl.Limit).
			Dur("reset_in", rl.TimeUntilReset()).
			Msg("Rate limit after run")
	}

	return nil
}
