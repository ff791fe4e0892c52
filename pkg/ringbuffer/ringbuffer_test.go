package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueAndPeek(t *testing.T) {
	b := New[int](3)

	assert.True(t, b.IsEmpty())
	assert.False(t, b.IsFull())

	_, ok := b.Front()
	assert.False(t, ok)
	_, ok = b.Rear()
	assert.False(t, ok)

	require.True(t, b.Enqueue(1))
	require.True(t, b.Enqueue(2))
	require.True(t, b.Enqueue(3))

	front, ok := b.Front()
	require.True(t, ok)
	assert.Equal(t, 1, front)

	rear, ok := b.Rear()
	require.True(t, ok)
	assert.Equal(t, 3, rear)

	assert.True(t, b.IsFull())
	assert.Equal(t, 3, b.Len())
}

func TestOverflowEvictsOldest(t *testing.T) {
	b := New[int](3)
	for _, v := range []int{1, 2, 3} {
		b.Enqueue(v)
	}

	require.True(t, b.Enqueue(4))

	assert.Equal(t, 3, b.Len())

	front, _ := b.Front()
	assert.Equal(t, 2, front)
	rear, _ := b.Rear()
	assert.Equal(t, 4, rear)
}

func TestEnqueueingCapacityPlusOne(t *testing.T) {
	const k = 5
	b := New[int](k)
	for i := 1; i <= k+1; i++ {
		b.Enqueue(i)
	}

	assert.Equal(t, k, b.Len())
	front, _ := b.Front()
	assert.Equal(t, 2, front) // 2nd-inserted survives
	rear, _ := b.Rear()
	assert.Equal(t, k+1, rear)
}

func TestItemsOldestFirst(t *testing.T) {
	b := New[string](3)
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		b.Enqueue(v)
	}

	assert.Equal(t, []string{"c", "d", "e"}, b.Items())
}

func TestZeroCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { New[int](0) })
}
