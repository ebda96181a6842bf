package parallel_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solvekit/gsom/parallel"
)

func TestIntoCollect_PreservesInputOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	out := parallel.IntoCollect(items, func(i int) int { return i * i })

	assert.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}, out)
}

func TestIntoCollect_EmptyInput(t *testing.T) {
	out := parallel.IntoCollect([]int{}, func(i int) int { return i })
	assert.Empty(t, out)
}

func TestIntoCollect_RunsEveryItem(t *testing.T) {
	var calls int64
	items := make([]int, 200)

	parallel.IntoCollect(items, func(i int) int {
		atomic.AddInt64(&calls, 1)
		return i
	})

	assert.Equal(t, int64(200), calls)
}

func TestIntoCollect_PropagatesPanic(t *testing.T) {
	items := []int{1, 2, 3}

	assert.Panics(t, func() {
		parallel.IntoCollect(items, func(i int) int {
			if i == 2 {
				panic("boom")
			}
			return i
		})
	})
}
