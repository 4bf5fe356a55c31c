// Package sort implements a parallel, in-place mergesort for slices of ordered values.
//
// A slice is split into contiguous chunks, each chunk is sorted concurrently by a hybrid
// insertion sort/mergesort, and the sorted chunks are merged back into the caller's slice.
// The sort is not stable. Comparisons follow the < operator, so with values that have no
// total order (NaN) the resulting order is unspecified, but no element is lost or duplicated.
package sort

import (
	"golang.org/x/exp/constraints"
)

// Ordered is the set of element types the sort accepts.
type Ordered interface {
	constraints.Ordered
}

// InsertionSortThreshold is the default region length at or below which insertion sort is
// used instead of splitting further.
const InsertionSortThreshold = 5

// SortRegion sorts s ascending in place on the calling goroutine.
func SortRegion[T Ordered](s []T) {
	sortRegion(s, InsertionSortThreshold)
}

func sortRegion[T Ordered](s []T, threshold int) {
	if len(s) <= 1 {
		return
	}
	if len(s) <= threshold {
		insertionSort(s)
		return
	}
	temp := make([]T, len(s))
	mergeSort(s, temp, threshold)
}

// mergeSort sorts s using temp, which must be at least as long as s, as scratch space.
func mergeSort[T Ordered](s, temp []T, threshold int) {
	if len(s) <= max(threshold, 1) {
		insertionSort(s)
		return
	}
	mid := len(s) / 2
	mergeSort(s[:mid], temp[:mid], threshold)
	mergeSort(s[mid:], temp[mid:], threshold)
	if s[mid-1] < s[mid] {
		return
	}
	copy(temp[:len(s)], s)
	mergeInto(s, temp[:mid], temp[mid:len(s)])
}

func insertionSort[T Ordered](s []T) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Merge returns a new slice holding left and right, both sorted ascending, merged in
// ascending order. Equal heads are taken from right first.
func Merge[T Ordered](left, right []T) []T {
	out := make([]T, len(left)+len(right))
	mergeInto(out, left, right)
	return out
}

// mergeInto merges left and right into dst, which must hold len(left)+len(right) elements
// and must not overlap either input.
func mergeInto[T Ordered](dst, left, right []T) {
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if left[i] < right[j] {
			dst[k] = left[i]
			i++
		} else {
			dst[k] = right[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], left[i:])
	copy(dst[k:], right[j:])
}
