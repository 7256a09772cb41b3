package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brobot-gg/slots/internal/testing/leaktest"
	"github.com/brobot-gg/slots/internal/worker"
)

func TestScheduleRunsJobRepeatedly(t *testing.T) {
	pool := worker.NewPool(1, 8)
	pool.Start()
	defer pool.Stop()

	var runs atomic.Int32
	fired := make(chan struct{}, 8)

	s := New(pool)
	s.Schedule(10*time.Millisecond, worker.JobFunc(func(ctx context.Context) error {
		runs.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}))

	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduled job did not fire")
		}
	}
	s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestStopHaltsTicker(t *testing.T) {
	leaktest.CheckNoGoroutineLeak(t, func() {
		pool := worker.NewPool(1, 8)
		pool.Start()

		var runs atomic.Int32
		s := New(pool)
		s.Schedule(5*time.Millisecond, worker.JobFunc(func(ctx context.Context) error {
			runs.Add(1)
			return nil
		}))

		time.Sleep(20 * time.Millisecond)
		s.Stop()
		pool.Stop()

		after := runs.Load()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, after, runs.Load(), "no runs after Stop")
	})
}
