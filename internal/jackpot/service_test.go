package jackpot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobot-gg/slots/internal/store/memstore"
)

func TestContributeAccumulates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 0.01)

	require.NoError(t, svc.Contribute(ctx, 100))
	require.NoError(t, svc.Contribute(ctx, 50))
	require.NoError(t, svc.Contribute(ctx, 0))
	require.NoError(t, svc.Contribute(ctx, -10))

	v, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(150), v)
}

func TestGrowCompounds(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 0.10)

	require.NoError(t, svc.Contribute(ctx, 1000))
	require.NoError(t, svc.Grow(ctx))

	v, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), v)

	// Growth floors: 1100 * 0.10 = 110
	require.NoError(t, svc.Grow(ctx))
	v, err = svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1210), v)
}

func TestGrowEmptyPoolIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 0.10)

	require.NoError(t, svc.Grow(ctx))

	v, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestGrowTinyPoolIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 0.01)

	require.NoError(t, svc.Contribute(ctx, 50))
	require.NoError(t, svc.Grow(ctx))

	v, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), v, "floor(50*0.01)=0 adds nothing")
}

func TestClaimZeroesPool(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 0.01)

	require.NoError(t, svc.Contribute(ctx, 500))

	amount, err := svc.Claim(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), amount)

	amount, err = svc.Claim(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)

	v, err := svc.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestConcurrentClaimPaysOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memstore.New(), 0.01)
	require.NoError(t, svc.Contribute(ctx, 10_000))

	var total atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			amount, err := svc.Claim(ctx)
			assert.NoError(t, err)
			total.Add(amount)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10_000), total.Load(), "exactly one claimer wins the pot")
}
