package mirror

import (
	"context"

	"github.com/agentstation/airsync/pkg/errors"
)

// PageFunc fetches one page of records starting at offset ("" for the first
// page) and returns the offset of the next page, or "" when done.
type PageFunc func(ctx context.Context, offset string) (records []Record, next string, err error)

// CollectPages drains fetch into a single slice. Any failure, including
// cancellation between pages, discards what was collected and returns a
// *errors.RemoteFetchError naming the page that failed.
func CollectPages(ctx context.Context, table string, fetch PageFunc) ([]Record, error) {
	var (
		all    []Record
		offset string
		seen   = map[string]bool{}
	)
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewRemoteFetchError(table, page, err)
		}
		records, next, err := fetch(ctx, offset)
		if err != nil {
			return nil, errors.NewRemoteFetchError(table, page, err)
		}
		all = append(all, records...)
		if next == "" {
			return all, nil
		}
		if seen[next] {
			return nil, errors.NewRemoteFetchError(table, page,
				errors.NewValidationError("offset", next, "pagination offset repeated"))
		}
		seen[next] = true
		offset = next
	}
}
