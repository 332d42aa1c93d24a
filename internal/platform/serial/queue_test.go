package serial

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_nestedPostRunsAfterCurrentTask(t *testing.T) {
	q := New()
	var order []string
	q.Post(func() {
		order = append(order, "outer-start")
		q.Post(func() { order = append(order, "inner") })
		order = append(order, "outer-end")
	})
	assert.Equal(t, []string{"outer-start", "outer-end", "inner"}, order)
}

func TestQueue_concurrentPostersNeverOverlap(t *testing.T) {
	q := New()
	var (
		active  int
		overlap bool
		count   int
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Call(func() {
				active++
				if active > 1 {
					overlap = true
				}
				count++
				active--
			})
		}()
	}
	wg.Wait()
	q.Call(func() {})
	assert.False(t, overlap)
	assert.Equal(t, 50, count)
}

func TestQueue_Call(t *testing.T) {
	q := New()
	ran := false
	q.Call(func() { ran = true })
	assert.True(t, ran)
}
