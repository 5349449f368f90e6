package sitefilter

import (
	"runtime"
	"sync"

	"github.com/inodb/parsimony-snps/internal/table"
)

// WorkItem is one table row tagged with its position in the input.
type WorkItem struct {
	Seq int
	Row *table.Row
}

// WorkResult pairs a row with the keep/drop decision made for it.
type WorkResult struct {
	Seq  int
	Row  *table.Row
	Site Site
}

// ParallelClassify fans rows out to workers that each run Classify with cfg.
// Decisions come back in completion order, so callers that write rows must
// go through OrderedCollect. workers <= 0 means one per CPU.
func ParallelClassify(items <-chan WorkItem, cfg Config, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- WorkResult{
					Seq:  item.Seq,
					Row:  item.Row,
					Site: Classify(item.Row.Fields, cfg),
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect hands decisions to fn in input order, holding back any
// that arrive before their predecessors. After fn fails the remaining
// results are drained so no worker stays blocked.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
