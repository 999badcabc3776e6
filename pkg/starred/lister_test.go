package starred

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/restar/internal/testutil"
	"github.com/Sternrassler/restar/pkg/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLister(t *testing.T, baseURL string, logger zerolog.Logger) (*Lister, *client.Client) {
	t.Helper()

	cfg := client.DefaultConfig("test-token")
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second

	api, err := client.New(cfg)
	require.NoError(t, err)

	return NewLister(api, logger), api
}

func TestLister_List(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetStarredList("octocat", `[{"full_name":"a/b","id":1},{"full_name":"c/d","id":2},{"id":7}]`)

	lister, _ := newLister(t, mock.URL(), zerolog.Nop())

	items, err := lister.List(context.Background(), "octocat")
	require.NoError(t, err)
	require.Len(t, items, 3)

	name, ok := items[0].FullName()
	assert.True(t, ok)
	assert.Equal(t, "a/b", name)

	_, ok = items[2].FullName()
	assert.False(t, ok)

	assert.Equal(t, 1, mock.GetRequestCount(), "listing must be a single request")
	assert.Equal(t, "Bearer test-token", mock.LastRequestHeader().Get("Authorization"))
}

func TestLister_List_RequestsFirstPageOf100(t *testing.T) {
	var gotQuery string
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetHandler(http.MethodGet, "/users/octocat/starred", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	lister, _ := newLister(t, mock.URL(), zerolog.Nop())

	_, err := lister.List(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "per_page=100", gotQuery)
}

func TestLister_List_Empty(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetStarredList("nobody", `[]`)

	lister, _ := newLister(t, mock.URL(), zerolog.Nop())

	items, err := lister.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLister_List_NonArrayIsEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	mock := testutil.NewMockGitHub()
	defer mock.Close()

	// Unknown account: the default handler answers 404 with a JSON object.
	lister, _ := newLister(t, mock.URL(), zerolog.New(buf))

	items, err := lister.List(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Contains(t, buf.String(), "unexpected status")
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestLister_List_DecodeError(t *testing.T) {
	mock := testutil.NewMockGitHub()
	defer mock.Close()
	mock.SetResponse(http.MethodGet, "/users/octocat/starred", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `[{"full_name":`,
	})

	lister, _ := newLister(t, mock.URL(), zerolog.Nop())

	_, err := lister.List(context.Background(), "octocat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.False(t, errors.Is(err, client.ErrTransport))
}

func TestLister_List_TransportError(t *testing.T) {
	mock := testutil.NewMockGitHub()
	baseURL := mock.URL()
	mock.Close()

	lister, _ := newLister(t, baseURL, zerolog.Nop())

	_, err := lister.List(context.Background(), "octocat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrTransport))
	assert.Contains(t, err.Error(), "octocat")
}
