package slots

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobot-gg/slots/internal/domain"
)

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		symbols []Symbol
		wantErr bool
	}{
		{
			name:    "empty table",
			symbols: nil,
			wantErr: true,
		},
		{
			name: "duplicate keys",
			symbols: []Symbol{
				{Key: "cherry", Weight: 1},
				{Key: "cherry", Weight: 2},
			},
			wantErr: true,
		},
		{
			name: "weights sum to zero",
			symbols: []Symbol{
				{Key: "cherry", Weight: 0},
				{Key: "lemon", Weight: 0},
			},
			wantErr: true,
		},
		{
			name: "empty key",
			symbols: []Symbol{
				{Key: "", Weight: 1},
			},
			wantErr: true,
		},
		{
			name: "valid table",
			symbols: []Symbol{
				{Key: "cherry", Weight: 3, BaseValue: 5},
				{Key: "lemon", Weight: 1, BaseValue: 10},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.symbols)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrConfigInvalid)
				return
			}
			require.NoError(t, err)
			assert.Len(t, table.Symbols(), len(tt.symbols))
		})
	}
}

func TestTableLookup(t *testing.T) {
	table, err := NewTable([]Symbol{
		{Key: "cherry", Weight: 1, BaseValue: 5},
		{Key: "wild", Weight: 1, BaseValue: 50, Wild: true},
	})
	require.NoError(t, err)

	sym, ok := table.Lookup("cherry")
	assert.True(t, ok)
	assert.Equal(t, int64(5), sym.BaseValue)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)

	require.NotNil(t, table.Wild())
	assert.Equal(t, "wild", table.Wild().Key)
}

func TestDrawNeverReturnsZeroWeight(t *testing.T) {
	table, err := NewTable([]Symbol{
		{Key: "common", Weight: 1},
		{Key: "never", Weight: 0},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		sym := table.Draw(rng.Float64)
		assert.NotEqual(t, "never", sym.Key)
	}
}

func TestDrawConvergesToWeights(t *testing.T) {
	table, err := NewTable([]Symbol{
		{Key: "a", Weight: 6},
		{Key: "b", Weight: 3},
		{Key: "c", Weight: 1},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	const draws = 200000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[table.Draw(rng.Float64).Key]++
	}

	// Empirical frequency should land within 1% of the configured weight
	for key, want := range map[string]float64{"a": 0.6, "b": 0.3, "c": 0.1} {
		got := float64(counts[key]) / draws
		assert.InDelta(t, want, got, 0.01, "symbol %s", key)
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(nil)
	_, err := h.Load()
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)

	table, err := NewTable([]Symbol{{Key: "a", Weight: 1}})
	require.NoError(t, err)

	h.Swap(table)
	got, err := h.Load()
	require.NoError(t, err)
	assert.Equal(t, table, got)
}
