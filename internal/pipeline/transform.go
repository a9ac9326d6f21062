package pipeline

import (
	"fmt"
	"os"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
)

// prepareFile parses the cached feed at path and reduces it to the table of
// ventilating trusts.
func prepareFile(path string) (domain.Feed, *domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Feed{}, nil, &domain.FetchError{Err: fmt.Errorf("open cached feed: %w", err)}
	}
	defer f.Close()

	feed, err := domain.ParseFeed(f)
	if err != nil {
		return domain.Feed{}, nil, err
	}

	table, err := domain.Prepare(feed.Rows)
	if err != nil {
		return domain.Feed{}, nil, err
	}
	return feed, table, nil
}
