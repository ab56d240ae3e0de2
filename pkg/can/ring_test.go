package can

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func frameN(n int) Frame {
	return NewFrame(uint32(n), false, []byte{byte(n)})
}

func TestRingFIFO(t *testing.T) {
	r := NewRing(nil)
	for i := 0; i < Capacity; i++ {
		require.True(t, r.Put(frameN(i)))
		require.Equal(t, i+1, r.Len())
	}
	for i := 0; i < Capacity; i++ {
		f, ok := r.Get()
		require.True(t, ok)
		require.Equal(t, uint32(i), f.ID)
	}
	_, ok := r.Get()
	require.False(t, ok)
	require.Equal(t, 0, r.Len())
}

func TestRingFullLeavesContents(t *testing.T) {
	r := NewRing(nil)
	for i := 0; i < Capacity; i++ {
		require.True(t, r.Put(frameN(i)))
	}
	require.False(t, r.Put(frameN(99)))
	require.False(t, r.PutFront(frameN(99)))
	require.Equal(t, Capacity, r.Len())
	for i := 0; i < Capacity; i++ {
		f, ok := r.Get()
		require.True(t, ok)
		require.Equal(t, uint32(i), f.ID)
	}
}

func TestRingPutFront(t *testing.T) {
	r := NewRing(nil)
	require.True(t, r.Put(frameN(1)))
	require.True(t, r.Put(frameN(2)))
	require.True(t, r.PutFront(frameN(0)))
	for i := 0; i < 3; i++ {
		f, ok := r.Get()
		require.True(t, ok)
		require.Equal(t, uint32(i), f.ID)
	}
}

func TestRingInterleaved(t *testing.T) {
	r := NewRing(nil)
	next, expect := 0, 0
	// alternate bursts of puts and gets across several wrap points
	for round := 0; round < 10; round++ {
		for i := 0; i < 5; i++ {
			if r.Put(frameN(next)) {
				next++
			}
			require.True(t, r.Len() <= Capacity)
		}
		for i := 0; i < 3; i++ {
			f, ok := r.Get()
			require.True(t, ok)
			require.Equal(t, uint32(expect), f.ID)
			expect++
			require.True(t, r.Len() >= 0)
		}
	}
}

func TestRingClear(t *testing.T) {
	r := NewRing(nil)
	r.Put(frameN(1))
	r.Put(frameN(2))
	r.Clear()
	require.Equal(t, 0, r.Len())
	_, ok := r.Get()
	require.False(t, ok)
}

type mutexGate struct {
	mu sync.Mutex
}

func (g *mutexGate) Mask()   { g.mu.Lock() }
func (g *mutexGate) Unmask() { g.mu.Unlock() }

func TestRingCrossContext(t *testing.T) {
	const total = 2000
	r := NewRing(&mutexGate{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < total; {
			if r.Put(frameN(i)) {
				i++
			}
		}
	}()

	for i := 0; i < total; {
		n := r.Len()
		require.True(t, n >= 0 && n <= Capacity)
		if f, ok := r.Get(); ok {
			require.Equal(t, uint32(i), f.ID)
			i++
		}
	}
	<-done
	require.Equal(t, 0, r.Len())
}
