package connectors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/trailstone/osgraph/internal/core/domain"
)

var errUpstream = errors.New("upstream broke")

func TestForEachTermAccumulatesInOrder(t *testing.T) {
	records, err := ForEachTerm(context.Background(), []string{"a", "b"}, 0, nil,
		func(_ context.Context, term string) ([]string, error) {
			return []string{term + "-1", term + "-2"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "a-2", "b-1", "b-2"}, records)
}

func TestForEachTermTruncatesAtLimit(t *testing.T) {
	calls := 0
	records, err := ForEachTerm(context.Background(), []string{"a", "b", "c"}, 3, nil,
		func(_ context.Context, term string) ([]string, error) {
			calls++
			return []string{term + "-1", term + "-2"}, nil
		})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 2, calls)
}

func TestForEachTermPartialFailurePolicy(t *testing.T) {
	records, err := ForEachTerm(context.Background(), []string{"a", "b"}, 0, nil,
		func(_ context.Context, term string) ([]string, error) {
			if term == "b" {
				return nil, errUpstream
			}
			return []string{"a-1"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1"}, records)
}

func TestForEachTermFirstFailureIsHard(t *testing.T) {
	_, err := ForEachTerm(context.Background(), []string{"a", "b"}, 0, nil,
		func(_ context.Context, _ string) ([]string, error) {
			return nil, errUpstream
		})
	assert.ErrorIs(t, err, errUpstream)
}

func TestForEachTermEmptyTermsFailsFast(t *testing.T) {
	records, err := ForEachTerm(context.Background(), nil, 0, nil,
		func(_ context.Context, _ string) ([]string, error) {
			t.Fatal("fetch should not run")
			return nil, nil
		})
	assert.ErrorIs(t, err, domain.ErrNoSearchTerms)
	assert.Nil(t, records)
}

func TestForEachTermHonoursLimiterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ForEachTerm(ctx, []string{"a"}, 0, rate.NewLimiter(rate.Limit(0.001), 0),
		func(_ context.Context, _ string) ([]string, error) {
			t.Fatal("fetch should not run")
			return nil, nil
		})
	assert.Error(t, err)
}

func TestPaginateStopsWhenNoMorePages(t *testing.T) {
	records, err := Paginate(context.Background(), 0, 0,
		func(_ context.Context, page int) ([]int, bool, error) {
			return []int{page}, page < 3, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, records)
}

func TestPaginateHonoursPageCeiling(t *testing.T) {
	records, err := Paginate(context.Background(), 0, 2,
		func(_ context.Context, page int) ([]int, bool, error) {
			return []int{page}, true, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, records)
}

func TestPaginateDefaultCeiling(t *testing.T) {
	records, err := Paginate(context.Background(), 0, 0,
		func(_ context.Context, page int) ([]int, bool, error) {
			return []int{page}, true, nil
		})
	require.NoError(t, err)
	assert.Len(t, records, DefaultPageCeiling)
}

func TestPaginateTruncatesAtLimit(t *testing.T) {
	records, err := Paginate(context.Background(), 3, 0,
		func(_ context.Context, page int) ([]int, bool, error) {
			return []int{page * 10, page*10 + 1}, true, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 11, 20}, records)
}

func TestPaginatePartialFailurePolicy(t *testing.T) {
	records, err := Paginate(context.Background(), 0, 0,
		func(_ context.Context, page int) ([]int, bool, error) {
			if page == 2 {
				return nil, false, errUpstream
			}
			return []int{page}, true, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, records)
}

func TestPaginateFirstPageFailureIsHard(t *testing.T) {
	_, err := Paginate(context.Background(), 0, 0,
		func(_ context.Context, _ int) ([]int, bool, error) {
			return nil, false, errUpstream
		})
	assert.ErrorIs(t, err, errUpstream)
}
