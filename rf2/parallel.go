package rf2

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FileTask pairs a descriptive name with the all-at-once parse call to run.
// Each task's parse function is expected to close over its own *Parser[T] and
// invoke ParseAll or ParseBatches; the result of the call is irrelevant to this
// package beyond the error, since sinks are expected to do their own, already
// independent, writing (e.g. into per-file local slices later merged serially).
type FileTask struct {
	Name  string
	Parse func() error
}

// ParseFilesParallel runs every task's Parse function concurrently and, once
// every task has returned, returns the first error any of them reported.
// Parse functions receive no context, so neither cancellation of ctx nor one
// task failing stops the other tasks early. Independent
// files (concept, description, relationship, refsets) may always run this way;
// shared-map insertion from their results must still be serialized by the caller.
func ParseFilesParallel(ctx context.Context, tasks []FileTask) error {
	g, _ := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			return t.Parse()
		})
	}
	return g.Wait()
}
