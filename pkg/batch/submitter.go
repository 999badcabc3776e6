package batch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/restar/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	starOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restar_star_outcomes_total",
		Help: "Star requests by outcome",
	}, []string{"result"})

	starGroupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restar_star_groups_total",
		Help: "Star request groups processed",
	})

	starInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "restar_star_in_flight",
		Help: "Star requests currently in flight",
	})
)

// DefaultGroupSize is the number of star requests issued concurrently.
const DefaultGroupSize = 2

// Config holds submitter configuration.
type Config struct {
	// GroupSize is the number of requests started together. Values < 1 use DefaultGroupSize.
	GroupSize int

	// Timeout bounds each request. 0 means no per-request timeout.
	Timeout time.Duration
}

// DefaultConfig returns the default submitter configuration.
func DefaultConfig() Config {
	return Config{
		GroupSize: DefaultGroupSize,
	}
}

// Writer issues the star request for one URL. *client.Client implements it.
type Writer interface {
	Put(ctx context.Context, url string) (*http.Response, error)
}

// Submitter stars every URL in sequential groups of concurrent requests.
type Submitter struct {
	writer   Writer
	config   Config
	reporter Reporter
	logger   zerolog.Logger
}

// NewSubmitter creates a Submitter. A nil reporter logs outcomes with logger.
func NewSubmitter(writer Writer, config Config, reporter Reporter, logger zerolog.Logger) *Submitter {
	if config.GroupSize <= 0 {
		config.GroupSize = DefaultGroupSize
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}
	if reporter == nil {
		reporter = NewLogReporter(logger)
	}

	return &Submitter{
		writer:   writer,
		config:   config,
		reporter: reporter,
		logger:   logger,
	}
}

// Partition cuts urls into consecutive groups of at most size, preserving order.
func Partition(urls []string, size int) [][]string {
	if size <= 0 {
		size = DefaultGroupSize
	}

	groups := make([][]string, 0, (len(urls)+size-1)/size)
	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		groups = append(groups, urls[start:end])
	}
	return groups
}

// Submit stars every URL. Groups run strictly one after another; the
// requests of a group run concurrently and are all joined before the next
// group starts. Individual failures are reported and never stop the run.
// Once ctx is done no further group is started.
func (s *Submitter) Submit(ctx context.Context, urls []string) {
	groups := Partition(urls, s.config.GroupSize)
	start := time.Now()

	s.logger.Info().
		Int("count", len(urls)).
		Int("groups", len(groups)).
		Int("group_size", s.config.GroupSize).
		Msg("Starting star submission")

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			s.logger.Warn().
				Err(err).
				Int("group", i).
				Int("remaining_groups", len(groups)-i).
				Msg("Submission stopped (context cancelled)")
			return
		}

		s.runGroup(ctx, i, group)
		starGroupsTotal.Inc()
	}

	s.logger.Info().
		Int("groups", len(groups)).
		Dur("duration", time.Since(start)).
		Msg("Star submission complete")
}

// runGroup starts every request of the group and waits for all of them.
func (s *Submitter) runGroup(ctx context.Context, index int, group []string) {
	s.logger.Debug().
		Int("group", index).
		Strs("urls", group).
		Msg("Starting group")

	var g errgroup.Group
	for _, url := range group {
		g.Go(func() error {
			s.reporter.Report(s.submitOne(ctx, index, url))
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug().Int("group", index).Msg("Group finished")
}

// submitOne issues one star request and classifies its outcome.
func (s *Submitter) submitOne(ctx context.Context, group int, url string) Outcome {
	starInFlight.Inc()
	defer starInFlight.Dec()

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	outcome := Outcome{URL: url, Group: group}

	resp, err := s.writer.Put(ctx, url)
	if err != nil {
		outcome.Result = ResultTransportFailed
		outcome.Err = err
		starOutcomesTotal.WithLabelValues(string(outcome.Result)).Inc()
		return outcome
	}
	if resp.Body != nil {
		defer func() {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
	}

	outcome.StatusCode = resp.StatusCode
	if resp.StatusCode == http.StatusNoContent {
		outcome.Result = ResultSucceeded
	} else {
		outcome.Result = ResultRejected
		outcome.Err = client.NewAPIError(resp)
	}

	starOutcomesTotal.WithLabelValues(string(outcome.Result)).Inc()
	return outcome
}
