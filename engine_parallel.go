package refdoc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/refdoc/internal/model"
	"github.com/jward/refdoc/internal/scan"
)

// buildPagesParallel builds and renders pages through a three-phase
// pipeline:
//
//	Phase A (serial):  snapshot the instance list as indexed work items.
//	Phase B (parallel): build + render via worker pool, one fresh
//	                    renderer per document.
//	Phase C (serial):  collect results back into input positions.
//
// The Program is read-only after loading, so builders may read it from
// any number of workers. Results land at their input index, so the
// output never depends on scheduling.
func (e *Engine) buildPagesParallel(ctx context.Context, builder *model.Builder, instances []scan.Instance) ([]Page, error) {
	if len(instances) == 0 {
		return nil, nil
	}

	numWorkers := min(runtime.NumCPU(), len(instances))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan int, len(instances))
	for i := range instances {
		workCh <- i
	}
	close(workCh)

	type result struct {
		idx  int
		page Page
		err  error
	}
	resultCh := make(chan result, len(instances))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				page, err := e.buildPage(ctx, builder, instances[i])
				resultCh <- result{idx: i, page: page, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	pages := make([]Page, len(instances))
	errByIdx := make(map[int]error)
	for res := range resultCh {
		if res.err != nil {
			errByIdx[res.idx] = res.err
			continue
		}
		pages[res.idx] = res.page
	}

	if len(errByIdx) > 0 {
		// Surface the error for the earliest instance so the message is
		// stable regardless of worker scheduling.
		first := -1
		for idx := range errByIdx {
			if first < 0 || idx < first {
				first = idx
			}
		}
		return nil, fmt.Errorf("refdoc: building %d document(s) failed: %w", len(errByIdx), errByIdx[first])
	}
	return pages, nil
}
