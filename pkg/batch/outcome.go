package batch

import (
	"github.com/rs/zerolog"
)

// Result classifies how a single star request ended.
type Result string

const (
	// ResultSucceeded means GitHub answered 204 No Content.
	ResultSucceeded Result = "succeeded"

	// ResultRejected means GitHub answered with any other status.
	ResultRejected Result = "rejected"

	// ResultTransportFailed means no response was received.
	ResultTransportFailed Result = "transport_failed"
)

// Outcome is the result of one star request.
type Outcome struct {
	URL    string
	Group  int
	Result Result

	// StatusCode is set for Succeeded and Rejected.
	StatusCode int

	// Err describes a rejection or transport failure.
	Err error
}

// Reporter receives outcomes. Report is called concurrently from the
// requests of one group.
type Reporter interface {
	Report(Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Outcome)

// Report calls f(o).
func (f ReporterFunc) Report(o Outcome) { f(o) }

// LogReporter writes one log line per outcome. Successes go to the
// success logger at info, rejections and transport failures to the
// failure logger at error.
type LogReporter struct {
	success zerolog.Logger
	failure zerolog.Logger
}

// NewLogReporter creates a LogReporter writing everything to logger.
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{success: logger, failure: logger}
}

// NewSplitLogReporter creates a LogReporter with separate sinks, e.g.
// stdout for successes and stderr for failures.
func NewSplitLogReporter(success, failure zerolog.Logger) *LogReporter {
	return &LogReporter{success: success, failure: failure}
}

// Report implements Reporter.
func (r *LogReporter) Report(o Outcome) {
	switch o.Result {
	case ResultSucceeded:
		r.success.Info().
			Str("url", o.URL).
			Int("group", o.Group).
			Msg("Successfully starred repo")
	case ResultRejected:
		r.failure.Error().
			Err(o.Err).
			Str("url", o.URL).
			Int("group", o.Group).
			Int("status", o.StatusCode).
			Msg("Failed to star repo")
	default:
		r.failure.Error().
			Err(o.Err).
			Str("url", o.URL).
			Int("group", o.Group).
			Msg("Error sending star request")
	}
}
