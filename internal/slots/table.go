package slots

import (
	"fmt"
	"sync/atomic"

	"github.com/brobot-gg/slots/internal/domain"
)

// Symbol is one entry of the weighted symbol table. Immutable after load.
type Symbol struct {
	Key       string  `json:"key" validate:"required"`
	Emoji     string  `json:"emoji,omitempty"`
	Weight    float64 `json:"weight" validate:"gte=0"`
	BaseValue int64   `json:"base_value" validate:"gte=0"`
	Wild      bool    `json:"is_wild"`
	Mult      bool    `json:"is_multiplier"`
	Factor    int64   `json:"multiplier,omitempty" validate:"gte=0"`
}

// Table is a validated symbol table with precomputed cumulative weights
// for O(log n) weighted draws.
type Table struct {
	symbols []Symbol
	byKey   map[string]Symbol
	cum     []float64
	total   float64
	wild    *Symbol // designated wild for all-wild lines, first wild-flagged entry
}

// NewTable builds a Table from config symbols. An empty table, or one whose
// weights sum to zero, is a config error and fatal to spin operations.
func NewTable(symbols []Symbol) (*Table, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", domain.ErrConfigInvalid)
	}

	t := &Table{
		symbols: make([]Symbol, len(symbols)),
		byKey:   make(map[string]Symbol, len(symbols)),
		cum:     make([]float64, len(symbols)),
	}
	copy(t.symbols, symbols)

	for i, sym := range t.symbols {
		if sym.Key == "" {
			return nil, fmt.Errorf("%w: symbol %d has empty key", domain.ErrConfigInvalid, i)
		}
		if _, dup := t.byKey[sym.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol key %q", domain.ErrConfigInvalid, sym.Key)
		}
		if sym.Weight < 0 {
			return nil, fmt.Errorf("%w: symbol %q has negative weight", domain.ErrConfigInvalid, sym.Key)
		}
		t.byKey[sym.Key] = sym
		t.total += sym.Weight
		t.cum[i] = t.total
		if sym.Wild && t.wild == nil {
			w := sym
			t.wild = &w
		}
	}

	if t.total <= 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", domain.ErrConfigInvalid)
	}
	return t, nil
}

// Draw picks one symbol weighted by Weight. Symbols with weight <= 0 are
// never drawn. rng must return a value in [0, 1).
func (t *Table) Draw(rng func() float64) Symbol {
	target := rng() * t.total
	lo, hi := 0, len(t.cum)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if t.cum[mid] <= target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return t.symbols[lo]
}

// Lookup returns the symbol for a key
func (t *Table) Lookup(key string) (Symbol, bool) {
	s, ok := t.byKey[key]
	return s, ok
}

// Wild returns the designated wild symbol, if any
func (t *Table) Wild() *Symbol {
	return t.wild
}

// Symbols returns the table entries in config order
func (t *Table) Symbols() []Symbol {
	return t.symbols
}

// TotalWeight returns the sum of all symbol weights
func (t *Table) TotalWeight() float64 {
	return t.total
}

// Holder publishes the active table. Admin reload swaps it atomically so
// in-flight spins keep the table they started with.
type Holder struct {
	ptr atomic.Pointer[Table]
}

// NewHolder creates a Holder, optionally seeded with a table
func NewHolder(t *Table) *Holder {
	h := &Holder{}
	if t != nil {
		h.ptr.Store(t)
	}
	return h
}

// Load returns the active table, or ErrConfigInvalid when none is loaded
func (h *Holder) Load() (*Table, error) {
	t := h.ptr.Load()
	if t == nil {
		return nil, fmt.Errorf("%w: no table loaded", domain.ErrConfigInvalid)
	}
	return t, nil
}

// Swap replaces the active table
func (h *Holder) Swap(t *Table) {
	h.ptr.Store(t)
}
