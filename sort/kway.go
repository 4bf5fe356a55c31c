package sort

import (
	"container/heap"

	"github.com/sbezverk/sorttools/workerpool"
)

type cursor struct {
	chunk int
	pos   int
	end   int
}

// heads is a min-heap of chunk cursors ordered by the element under each cursor,
// lowest chunk index first on ties.
type heads[T Ordered] struct {
	s       []T
	cursors []cursor
}

func (h *heads[T]) Len() int { return len(h.cursors) }

func (h *heads[T]) Less(i, j int) bool {
	a, b := h.cursors[i], h.cursors[j]
	if h.s[a.pos] < h.s[b.pos] {
		return true
	}
	if h.s[b.pos] < h.s[a.pos] {
		return false
	}
	return a.chunk < b.chunk
}

func (h *heads[T]) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }

func (h *heads[T]) Push(x any) { h.cursors = append(h.cursors, x.(cursor)) }

func (h *heads[T]) Pop() any {
	last := h.cursors[len(h.cursors)-1]
	h.cursors = h.cursors[:len(h.cursors)-1]
	return last
}

// mergeKWay merges the individually sorted chunks of s into an output buffer and copies it
// back over s once every element has been drawn.
func mergeKWay[T Ordered](s []T, chunks []workerpool.Range) {
	h := &heads[T]{s: s, cursors: make([]cursor, 0, len(chunks))}
	for i, c := range chunks {
		if c.Start < c.End {
			h.cursors = append(h.cursors, cursor{chunk: i, pos: c.Start, end: c.End})
		}
	}
	heap.Init(h)

	out := make([]T, 0, len(s))
	for len(out) < len(s) {
		c := &h.cursors[0]
		out = append(out, s[c.pos])
		c.pos++
		if c.pos == c.end {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	copy(s, out)
}
