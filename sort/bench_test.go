package sort

import (
	"fmt"
	"math/rand"
	"testing"

	"golang.org/x/exp/slices"
)

func randomInts(n int) []int32 {
	r := rand.New(rand.NewSource(42))
	s := make([]int32, n)
	for i := range s {
		s[i] = r.Int31()
	}
	return s
}

func BenchmarkSort(b *testing.B) {
	src := randomInts(1 << 20)
	buf := make([]int32, len(src))
	for _, strategy := range []Strategy{Pairwise, KWay} {
		for _, workers := range []int{1, 2, 4, 8, 16} {
			b.Run(fmt.Sprintf("%s/workers=%d", strategy, workers), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					copy(buf, src)
					_ = SortWithOptions(buf, Options{Workers: workers, Strategy: strategy})
				}
			})
		}
	}
}

func BenchmarkBaseline(b *testing.B) {
	src := randomInts(1 << 20)
	buf := make([]int32, len(src))
	for i := 0; i < b.N; i++ {
		copy(buf, src)
		slices.Sort(buf)
	}
}
