package display

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer(0)

	assert.Equal(t, DefaultCapacity, b.Cap())
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Values())

	_, ok := b.Latest()
	assert.False(t, ok)
}

func TestPush_EvictsOldest(t *testing.T) {
	b := NewBuffer(3)

	for i := 1; i <= 5; i++ {
		b.Push(float64(i))
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []float64{3, 4, 5}, b.Values())

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, 5.0, latest)
}

func TestPush_DefaultWindow(t *testing.T) {
	b := NewBuffer(DefaultCapacity)

	for i := 0; i < 150; i++ {
		b.Push(float64(i))
	}

	values := b.Values()
	require.Len(t, values, 100)
	assert.Equal(t, 50.0, values[0])
	assert.Equal(t, 149.0, values[99])
}

func TestValues_ReturnsCopy(t *testing.T) {
	b := NewBuffer(4)
	b.Push(1)
	b.Push(2)

	values := b.Values()
	values[0] = 42

	assert.Equal(t, []float64{1, 2}, b.Values())
}

func TestReset(t *testing.T) {
	b := NewBuffer(4)
	b.Push(1)
	b.Push(2)

	b.Reset()

	assert.Equal(t, 0, b.Len())
	b.Push(3)
	assert.Equal(t, []float64{3}, b.Values())
}

func TestBuffer_ConcurrentReaders(t *testing.T) {
	b := NewBuffer(10)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				values := b.Values()
				assert.LessOrEqual(t, len(values), 10)
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		b.Push(float64(i))
	}
	wg.Wait()

	assert.Equal(t, 10, b.Len())
}
