package starred

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Sternrassler/restar/pkg/client"
	"github.com/rs/zerolog"
)

// Getter performs an authenticated GET against a path of the API.
// *client.Client implements it.
type Getter interface {
	Get(ctx context.Context, path string) (*http.Response, error)
}

// Lister reads the first page of an account's starred repositories.
type Lister struct {
	api    Getter
	logger zerolog.Logger
}

// NewLister creates a Lister on top of api.
func NewLister(api Getter, logger zerolog.Logger) *Lister {
	return &Lister{
		api:    api,
		logger: logger,
	}
}

// List fetches up to client.StarredPageSize starred repositories of account
// with a single request and no retries.
//
// Transport failures wrap client.ErrTransport; bodies that are not JSON wrap
// ErrDecode. A non-200 status is logged but its body is still decoded, so a
// GitHub error object yields an empty listing.
func (l *Lister) List(ctx context.Context, account string) ([]Item, error) {
	path := client.StarredListPath(account)

	resp, err := l.api.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("list starred repositories of %s: %w", account, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list starred repositories of %s: %w: read body: %w", account, client.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		l.logger.Warn().
			Str("account", account).
			Int("status", resp.StatusCode).
			Msg("Starred listing returned unexpected status")
	}

	items, err := DecodeItems(body)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("account", account).
		Int("count", len(items)).
		Msg("Fetched starred repositories")

	return items, nil
}
