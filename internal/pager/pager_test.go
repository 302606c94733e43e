package pager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticPages serves pages from a fixed slice and counts requests.
func staticPages(pages [][]int, calls *int) FetchFunc[int] {
	return func(_ context.Context, page int) ([]int, error) {
		*calls++
		if page > len(pages) {
			return nil, nil
		}
		return pages[page-1], nil
	}
}

func TestPages_StopsAtEmptyPage(t *testing.T) {
	calls := 0
	items, err := Collect(Pages(context.Background(), staticPages([][]int{{1, 2}, {3}}, &calls), nil))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.Equal(t, 3, calls, "the empty page is requested once to detect the end")
}

func TestPages_NoItems(t *testing.T) {
	calls := 0
	items, err := Collect(Pages(context.Background(), staticPages(nil, &calls), nil))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, calls)
}

func TestPages_CustomDone(t *testing.T) {
	calls := 0
	shortPage := func(items []int) bool { return len(items) < 2 }
	items, err := Collect(Pages(context.Background(), staticPages([][]int{{1, 2}, {3}, {4, 5}}, &calls), shortPage))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
	assert.Equal(t, 2, calls)
}

func TestPages_ErrorKeepsPartialResults(t *testing.T) {
	forbidden := errors.New("403 Forbidden")
	fetch := func(_ context.Context, page int) ([]int, error) {
		if page == 2 {
			return nil, forbidden
		}
		items := make([]int, 100)
		for i := range items {
			items[i] = i
		}
		return items, nil
	}
	items, err := Collect(Pages(context.Background(), fetch, nil))
	require.Error(t, err)
	assert.Len(t, items, 100)
	assert.ErrorIs(t, err, forbidden)

	var pageErr *PageError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, 2, pageErr.Page)
	assert.Equal(t, "page 2: 403 Forbidden", err.Error())
}

func TestPages_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fetch := func(_ context.Context, page int) ([]int, error) {
		calls++
		cancel()
		return []int{page}, nil
	}
	items, err := Collect(Pages(ctx, fetch, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{1}, items)
	assert.Equal(t, 1, calls)
}

func TestPages_ConsumerCanStopEarly(t *testing.T) {
	calls := 0
	seq := Pages(context.Background(), staticPages([][]int{{1}, {2}, {3}}, &calls), nil)
	for items, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, []int{1}, items)
		break
	}
	assert.Equal(t, 1, calls)
}
