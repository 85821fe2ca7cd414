package usecase

import (
	"context"
	"fmt"
)

const maxPagesPerListing = 200

// collectPages fetches pages until the provider reports no more. A page that
// still fails after retries ends the listing and is recorded on the run.
func collectPages[T any](ctx context.Context, run *Run, op string, fetch func(ctx context.Context, page int) (Page[T], error), onPage func(page Page[T])) []T {
	var out []T
	for page := 1; page <= maxPagesPerListing; page++ {
		var current Page[T]
		err := run.Call(ctx, fmt.Sprintf("%s page %d", op, page), func(ctx context.Context) error {
			var err error
			current, err = fetch(ctx, page)
			return err
		})
		if err != nil {
			run.Fail(ctx, fmt.Sprintf("fetch %s page %d", op, page), err)
			break
		}
		if onPage != nil {
			onPage(current)
		}
		out = append(out, current.Items...)
		if !current.HasMore() {
			break
		}
	}
	return out
}

// forEachBatch calls fn with consecutive slices of at most size items.
func forEachBatch[T any](items []T, size int, fn func(batchNo int, batch []T, done int)) {
	if size <= 0 {
		size = len(items)
	}
	for start, batchNo := 0, 1; start < len(items); start, batchNo = start+size, batchNo+1 {
		end := min(start+size, len(items))
		fn(batchNo, items[start:end], end)
	}
}
