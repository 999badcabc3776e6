package restar

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/restar/internal/testutil"
	"github.com/Sternrassler/restar/pkg/batch"
	"github.com/Sternrassler/restar/pkg/client"
	"github.com/Sternrassler/restar/pkg/starred"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	outcomes []batch.Outcome
}

func (r *recorder) Report(o batch.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func TestRun_StarsEveryListedRepository(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetStarredList("octocat", `[{"full_name":"a/b"},{"full_name":"c/d"},{"id":7}]`)
	mock.SetStarDelay(50 * time.Millisecond)
	rec := &recorder{}

	err := Run(context.Background(), Options{
		Account:  "octocat",
		Token:    "test-token",
		BaseURL:  mock.URL(),
		Reporter: rec,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a/b", "c/d"}, mock.Starred())
	assert.Equal(t, 2, mock.MaxInFlight(), "both star requests belong to one concurrent group")
	assert.Equal(t, 3, mock.GetRequestCount(), "one listing plus two star requests")

	require.Len(t, rec.outcomes, 2)
	for _, o := range rec.outcomes {
		assert.Equal(t, batch.ResultSucceeded, o.Result)
		assert.Equal(t, 0, o.Group)
	}
	assert.Equal(t, "Bearer test-token", mock.LastRequestHeader().Get("Authorization"))
}

func TestRun_EmptyListing(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetStarredList("nobody", `[]`)
	rec := &recorder{}

	err := Run(context.Background(), Options{
		Account:  "nobody",
		Token:    "test-token",
		BaseURL:  mock.URL(),
		Reporter: rec,
	})
	require.NoError(t, err)

	assert.Empty(t, mock.Starred())
	assert.Equal(t, 1, mock.GetRequestCount())
	assert.Empty(t, rec.outcomes)
}

func TestRun_ListingTransportError(t *testing.T) {
	mock := testutil.NewMockGitHub()
	baseURL := mock.URL()
	mock.Close()
	rec := &recorder{}

	err := Run(context.Background(), Options{
		Account:  "octocat",
		Token:    "test-token",
		BaseURL:  baseURL,
		Reporter: rec,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrTransport))
	assert.Empty(t, rec.outcomes, "no star request may be issued")
}

func TestRun_ListingDecodeError(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetResponse(http.MethodGet, "/users/octocat/starred", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "not json",
	})

	err := Run(context.Background(), Options{
		Account:  "octocat",
		Token:    "test-token",
		BaseURL:  mock.URL(),
		Reporter: &recorder{},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, starred.ErrDecode))
	assert.Empty(t, mock.Starred())
}

func TestRun_ListingErrorObjectIsEmpty(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetResponse(http.MethodGet, "/users/octocat/starred",
		testutil.NewJSONResponse(http.StatusUnauthorized, `{"message":"Bad credentials"}`))

	err := Run(context.Background(), Options{
		Account:  "octocat",
		Token:    "bad-token",
		BaseURL:  mock.URL(),
		Reporter: &recorder{},
	})
	require.NoError(t, err)
	assert.Empty(t, mock.Starred())
}

func TestRun_PerItemFailuresDoNotFailRun(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetStarredList("octocat", `[{"full_name":"a/b"},{"full_name":"gone/repo"},{"full_name":"bad/repo"},{"full_name":"e/f"},{"full_name":"g/h"}]`)
	mock.SetStarResponse("gone/repo", testutil.NewNotFoundResponse())
	mock.SetStarResponse("bad/repo", testutil.NewValidationFailedResponse())
	rec := &recorder{}

	err := Run(context.Background(), Options{
		Account:   "octocat",
		Token:     "test-token",
		BaseURL:   mock.URL(),
		GroupSize: 2,
		Reporter:  rec,
	})
	require.NoError(t, err)

	assert.Len(t, mock.Starred(), 5)
	assert.LessOrEqual(t, mock.MaxInFlight(), 2)

	results := map[batch.Result]int{}
	statuses := map[int]int{}
	for _, o := range rec.outcomes {
		results[o.Result]++
		statuses[o.StatusCode]++
	}
	assert.Equal(t, 3, results[batch.ResultSucceeded])
	assert.Equal(t, 2, results[batch.ResultRejected])
	assert.Equal(t, 1, statuses[http.StatusNotFound])
	assert.Equal(t, 1, statuses[http.StatusUnprocessableEntity])
}

func TestRun_GroupSizeOption(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetStarredList("octocat", `[{"full_name":"a/1"},{"full_name":"a/2"},{"full_name":"a/3"},{"full_name":"a/4"}]`)
	mock.SetStarDelay(30 * time.Millisecond)
	rec := &recorder{}

	err := Run(context.Background(), Options{
		Account:   "octocat",
		Token:     "test-token",
		BaseURL:   mock.URL(),
		GroupSize: 4,
		Reporter:  rec,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, mock.MaxInFlight())
	for _, o := range rec.outcomes {
		assert.Equal(t, 0, o.Group)
	}
}

func TestRun_InvalidClientConfig(t *testing.T) {
	err := Run(context.Background(), Options{Account: "octocat", Token: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

func TestRun_LogsFinalRateLimit(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := log.Logger
	log.Logger = zerolog.New(buf).Level(zerolog.DebugLevel)
	defer func() { log.Logger = prev }()

	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetStarredList("octocat", `[{"full_name":"a/b"}]`)

	err := Run(context.Background(), Options{
		Account:  "octocat",
		Token:    "test-token",
		BaseURL:  mock.URL(),
		Reporter: batch.ReporterFunc(func(batch.Outcome) {}),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Rate limit after run")
	assert.Contains(t, out, `"remaining":4999`)
	assert.Contains(t, out, `"limit":5000`)
}
