package stats

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"resourcedesk/internal/record"
)

// PageFunc fetches one 1-based page.
type PageFunc func(ctx context.Context, page int) (record.Page, error)

// Gather reads the first page, then the remaining ones concurrently, up to
// maxPages in total. Records come back in page order. truncated reports
// whether the backend had more pages than were read.
func Gather(ctx context.Context, fetch PageFunc, maxPages int) (recs []record.Record, truncated bool, err error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	first, err := fetch(ctx, 1)
	if err != nil {
		return nil, false, errors.Wrap(err, "fetch page 1")
	}

	last := first.Pagination.TotalPages
	if last > maxPages {
		last = maxPages
		truncated = true
	}
	if last <= 1 {
		return append([]record.Record{}, first.Data...), truncated, nil
	}

	pages := make([][]record.Record, last)
	pages[0] = first.Data

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for p := 2; p <= last; p++ {
		p := p
		g.Go(func() error {
			pg, err := fetch(gctx, p)
			if err != nil {
				return errors.Wrapf(err, "fetch page %d", p)
			}
			pages[p-1] = pg.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	for _, d := range pages {
		recs = append(recs, d...)
	}
	if recs == nil {
		recs = []record.Record{}
	}
	return recs, truncated, nil
}
