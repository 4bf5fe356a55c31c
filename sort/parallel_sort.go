package sort

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/sbezverk/sorttools/workerpool"
)

var (
	// ErrInvalidThreshold is returned when Options.Threshold is negative.
	ErrInvalidThreshold = errors.New("invalid insertion sort threshold")
	// ErrUnknownStrategy is returned for a merge strategy this package does not implement.
	ErrUnknownStrategy = errors.New("unknown merge strategy")
)

// Strategy selects how individually sorted chunks are combined.
type Strategy uint8

const (
	// Pairwise merges adjacent runs left to right, doubling the run length every round.
	Pairwise Strategy = iota
	// KWay merges all chunks at once, taking the smallest head each step. Equal heads are
	// taken from the lowest chunk index.
	KWay
)

func (st Strategy) String() string {
	switch st {
	case Pairwise:
		return "pairwise"
	case KWay:
		return "kway"
	}
	return fmt.Sprintf("strategy(%d)", uint8(st))
}

// ParseStrategy returns the Strategy named by s, case insensitive.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "pairwise", "":
		return Pairwise, nil
	case "kway", "k-way":
		return KWay, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Options controls SortWithOptions. The zero value sorts on a single worker with the default
// threshold and pairwise merging.
type Options struct {
	// Workers is the maximum number of chunks sorted concurrently. Values below 1 mean 1.
	Workers int
	// Threshold is the region length at or below which insertion sort is used.
	// Zero means InsertionSortThreshold.
	Threshold int
	Strategy  Strategy
	// Pool, when set, runs the chunk sorts instead of a pool created for the call.
	// The caller owns it and must close it.
	Pool *workerpool.Pool
}

type phase uint8

const (
	idle phase = iota
	chunkSorting
	merging
	done
)

func (p phase) String() string {
	switch p {
	case idle:
		return "Idle"
	case chunkSorting:
		return "ChunkSorting"
	case merging:
		return "Merging"
	case done:
		return "Done"
	}
	return "Unknown"
}

// EffectiveWorkers returns the number of workers a sort of n elements asked to use workers
// actually runs with: workers clamped to at least 1 and at most n. It is 0 when n <= 0.
func EffectiveWorkers(n, workers int) int {
	if n <= 0 {
		return 0
	}
	return min(max(workers, 1), n)
}

// Sort sorts s ascending in place using up to numWorkers goroutines. A numWorkers below 1 is
// treated as 1.
func Sort[T Ordered](s []T, numWorkers int) {
	if err := SortWithOptions(s, Options{Workers: numWorkers}); err != nil {
		glog.Errorf("failed to sort %d elements with error: %+v", len(s), err)
	}
}

// SortWithOptions sorts s ascending in place. When an error is returned the merge phase has
// not run and s still holds its original elements, though chunks may be partially reordered.
func SortWithOptions[T Ordered](s []T, opts Options) error {
	threshold := opts.Threshold
	switch {
	case threshold < 0:
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
	case threshold == 0:
		threshold = InsertionSortThreshold
	}
	if opts.Strategy != Pairwise && opts.Strategy != KWay {
		return fmt.Errorf("%w: %s", ErrUnknownStrategy, opts.Strategy)
	}
	if len(s) <= 1 {
		return nil
	}

	workers := EffectiveWorkers(len(s), opts.Workers)
	chunks := workerpool.Split(len(s), workers)
	glog.V(5).Infof("sorting %d elements in %d chunks, strategy %s: %s -> %s",
		len(s), len(chunks), opts.Strategy, idle, chunkSorting)

	pool := opts.Pool
	if pool == nil {
		pool = workerpool.New(len(chunks))
		defer pool.Close()
	}
	err := pool.ParallelFor(len(s), workers, func(start, end int) {
		sortRegion(s[start:end], threshold)
	})
	if err != nil {
		return fmt.Errorf("chunk sort failed: %w", err)
	}

	glog.V(5).Infof("sorting %d elements: %s -> %s", len(s), chunkSorting, merging)
	if len(chunks) > 1 {
		switch opts.Strategy {
		case Pairwise:
			mergePairwise(s, chunks[0].End-chunks[0].Start)
		case KWay:
			mergeKWay(s, chunks)
		}
	}
	glog.V(5).Infof("sorting %d elements: %s -> %s", len(s), merging, done)

	return nil
}

// mergePairwise merges sorted runs of length width, the last one possibly shorter, until s is
// a single sorted run. Each round merges neighbours left to right through one scratch buffer.
func mergePairwise[T Ordered](s []T, width int) {
	n := len(s)
	buf := make([]T, n)
	for ; width < n; width *= 2 {
		for lo := 0; lo+width < n; lo += 2 * width {
			mid, hi := lo+width, min(lo+2*width, n)
			if s[mid-1] < s[mid] {
				continue
			}
			mergeInto(buf[lo:hi], s[lo:mid], s[mid:hi])
			copy(s[lo:hi], buf[lo:hi])
		}
	}
}
