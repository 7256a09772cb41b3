package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brobot-gg/slots/internal/testing/leaktest"
)

func TestPoolProcessesJobs(t *testing.T) {
	var processed atomic.Int32

	leaktest.CheckNoGoroutineLeak(t, func() {
		pool := NewPool(3, 16)
		pool.Start()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			pool.Enqueue(JobFunc(func(ctx context.Context) error {
				defer wg.Done()
				processed.Add(1)
				return nil
			}))
		}
		wg.Wait()
		pool.Stop()
	})

	assert.Equal(t, int32(10), processed.Load())
}

func TestPoolSurvivesFailingJobs(t *testing.T) {
	pool := NewPool(1, 4)
	pool.Start()
	defer pool.Stop()

	done := make(chan struct{})
	pool.Enqueue(JobFunc(func(ctx context.Context) error {
		return errors.New("boom")
	}))
	pool.Enqueue(JobFunc(func(ctx context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped processing after a failed job")
	}
}

func TestPoolStopWaitsForWorkers(t *testing.T) {
	checker := leaktest.NewGoroutineChecker(t)

	pool := NewPool(4, 4)
	pool.Start()
	pool.Stop()

	checker.Check(0)
}
