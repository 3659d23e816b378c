package lib

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMPSCsequential(t *testing.T) {
	type vv struct {
		v int64
	}
	l := int64(10)
	queue := NewQueueMPSC[vv]()
	for i := int64(0); i < l; i++ {
		queue.Push(vv{v: i + 100})
	}
	require.Equal(t, l, queue.Len())

	for i := int64(0); i < l; i++ {
		v, ok := queue.Pop()
		require.True(t, ok)
		require.Equal(t, i+100, v.v)
	}

	_, ok := queue.Pop()
	require.False(t, ok)
	require.Zero(t, queue.Len())
}

func TestMPSCparallel(t *testing.T) {
	const (
		producers = 8
		messages  = 10000
	)
	type vv struct {
		producer int
		seq      int
	}
	queue := NewQueueMPSC[vv]()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < messages; i++ {
				queue.Push(vv{producer: p, seq: i})
			}
		}(p)
	}

	// consume while producing; every producer's values must come out in
	// the order they were pushed
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for total < producers*messages {
		v, ok := queue.Pop()
		if ok == false {
			select {
			case <-done:
			default:
			}
			continue
		}
		require.Equal(t, last[v.producer]+1, v.seq, "producer %d", v.producer)
		last[v.producer] = v.seq
		total++
	}
	<-done
	require.Zero(t, queue.Len())
}
