package task

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunner_BackgroundFIFO(t *testing.T) {
	r := NewRunner(zap.NewNop())
	defer r.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		r.SubmitBackground("n", func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, r.SubmitBackground("flush", func() error { return nil }).Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestRunner_QueuesRunIndependently(t *testing.T) {
	r := NewRunner(zap.NewNop())
	defer r.Close()

	release := make(chan struct{})
	blocked := r.SubmitBackground("block", func() error {
		<-release
		return nil
	})

	// context queue work completes while the background queue is stalled
	require.NoError(t, r.SubmitContext("ctx", func() error { return nil }).Wait())

	close(release)
	require.NoError(t, blocked.Wait())
}

func TestHandle_WaitReturnsTaskError(t *testing.T) {
	r := NewRunner(zap.NewNop())
	defer r.Close()

	boom := errors.New("boom")
	h := r.SubmitContext("failing", func() error { return boom })

	assert.ErrorIs(t, h.Wait(), boom)
}

func TestHandle_DoneClosesOnCompletion(t *testing.T) {
	r := NewRunner(zap.NewNop())
	defer r.Close()

	h := r.SubmitBackground("n", func() error { return nil })

	<-h.Done()
	assert.NoError(t, h.Wait())
}

func TestRunner_CloseDrainsQueuedWork(t *testing.T) {
	r := NewRunner(zap.NewNop())

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		r.SubmitBackground("n", func() error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
	}
	r.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, ran)
}

func TestSynchronous_RunsInline(t *testing.T) {
	var exec Executor = Synchronous{}

	ran := false
	h := exec.SubmitBackground("n", func() error {
		ran = true
		return nil
	})

	assert.True(t, ran, "task runs before Submit returns")
	assert.NoError(t, h.Wait())

	boom := errors.New("boom")
	assert.ErrorIs(t, exec.SubmitContext("n", func() error { return boom }).Wait(), boom)
}
