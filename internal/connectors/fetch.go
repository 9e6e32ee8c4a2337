package connectors

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/logger"
)

// DefaultPageCeiling bounds pagination within a single term so a source
// that keeps reporting more pages cannot stall a request indefinitely.
const DefaultPageCeiling = 10

// ForEachTerm fetches raw records for each term in order, one upstream call
// per term, and accumulates the results up to limit records (limit <= 0 means
// unbounded). Terms run sequentially in parsed order; most sources
// rate-limit by credential, and the partial-failure policy below depends on
// ordered accumulation.
//
// Partial-failure policy: if a term fails after an earlier term has already
// contributed records, the loop stops and returns what it has as a
// successful partial result. A failure before any record was gathered is a
// hard error. Timeouts count as ordinary failures.
//
// An empty term list fails fast with domain.ErrNoSearchTerms before any
// upstream call; callers translate that into their input-error message.
//
// A non-nil limiter is consulted before every call.
func ForEachTerm[T any](
	ctx context.Context,
	terms []string,
	limit int,
	limiter *rate.Limiter,
	fetch func(ctx context.Context, term string) ([]T, error),
) ([]T, error) {
	if len(terms) == 0 {
		return nil, domain.ErrNoSearchTerms
	}

	var records []T
	for i, term := range terms {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				if len(records) > 0 {
					return records, nil
				}
				return nil, err
			}
		}

		recs, err := fetch(ctx, term)
		if err != nil {
			if i > 0 && len(records) > 0 {
				logger.Warn("term %q failed after %d records, returning partial result: %v", term, len(records), err)
				return records, nil
			}
			return nil, err
		}

		records = append(records, recs...)
		if limit > 0 && len(records) >= limit {
			return records[:limit], nil
		}
	}
	return records, nil
}

// Paginate fetches pages starting at 1 until the source reports no further
// pages, maxPages is hit, or limit records have accumulated, whichever comes
// first. maxPages <= 0 falls back to DefaultPageCeiling.
//
// The same partial-failure policy as ForEachTerm applies: a failing page
// after a successful one yields the records gathered so far.
func Paginate[T any](
	ctx context.Context,
	limit, maxPages int,
	fetch func(ctx context.Context, page int) (records []T, hasMore bool, err error),
) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultPageCeiling
	}

	var records []T
	for page := 1; page <= maxPages; page++ {
		recs, hasMore, err := fetch(ctx, page)
		if err != nil {
			if len(records) > 0 {
				logger.Warn("page %d failed after %d records, returning partial result: %v", page, len(records), err)
				return records, nil
			}
			return nil, err
		}

		records = append(records, recs...)
		if limit > 0 && len(records) >= limit {
			return records[:limit], nil
		}
		if !hasMore {
			break
		}
	}
	return records, nil
}
