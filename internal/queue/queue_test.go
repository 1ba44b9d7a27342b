package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdictRow struct {
	ID     int
	Reason string
}

func TestQueue_PushPopOrder(t *testing.T) {
	q := New[verdictRow]()
	assert.True(t, q.Empty())

	q.Push(verdictRow{ID: 1}, verdictRow{ID: 2})
	q.Push(verdictRow{ID: 3})
	assert.Equal(t, 3, q.Len())

	for want := 1; want <= 3; want++ {
		item, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, item.ID)
	}

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_Drain(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3, 4, 5)

	assert.Equal(t, []int{1, 2}, q.Drain(2))
	assert.Equal(t, 3, q.Len())

	assert.Equal(t, []int{3, 4, 5}, q.Drain(0))
	assert.True(t, q.Empty())
	assert.Nil(t, q.Drain(10))
}

func TestQueue_DrainDoesNotAlias(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	first := q.Drain(1)
	q.Push(9)
	first[0] = 100

	assert.Equal(t, []int{2, 3, 9}, q.Drain(0))
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New[int]()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, q.Len())
	assert.Len(t, q.Drain(0), 800)
}
