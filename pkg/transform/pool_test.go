package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestThreadPool_GetPut(t *testing.T) {
	pool := NewThreadPool(5)

	thread := pool.Get("first")
	require.NotNil(t, thread, "Get returned nil")
	assert.Equal(t, "first", thread.Name, "thread.Name")

	pool.Put(thread)
	assert.Equal(t, 1, pool.Size(), "pool size after put")

	thread2 := pool.Get("second")
	assert.Equal(t, 0, pool.Size(), "pool size after get")
	assert.Equal(t, "second", thread2.Name, "thread.Name after reuse")
	assert.Same(t, thread, thread2, "thread should be reused")
}

func TestThreadPool_MaxSize(t *testing.T) {
	pool := NewThreadPool(2)

	threads := make([]*starlark.Thread, 3)
	for i := 0; i < 3; i++ {
		threads[i] = pool.Get("cell")
	}

	for _, thread := range threads {
		pool.Put(thread)
	}

	assert.Equal(t, 2, pool.Size(), "pool never grows past maxSize")
}

func TestThreadPool_DefaultSize(t *testing.T) {
	pool := NewThreadPool(0)
	assert.Equal(t, 10, pool.maxSize, "non-positive size falls back to default")
}
