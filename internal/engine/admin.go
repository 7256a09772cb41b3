package engine

import (
	"context"
	"fmt"

	"github.com/brobot-gg/slots/internal/domain"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/slots"
)

func (e *Engine) adminReset(ctx context.Context) (*domain.Result, error) {
	cleared, err := e.ledger.HardReset(ctx)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("hard reset complete", "keys_cleared", cleared)
	e.refresh()
	return &domain.Result{
		Kind:     domain.OutcomeAdmin,
		Messages: []string{fmt.Sprintf("hard reset complete, %d keys cleared", cleared)},
	}, nil
}

// adminReload re-reads the symbol config and swaps the table atomically.
// In-flight spins finish with the table they started with.
func (e *Engine) adminReload(ctx context.Context) (*domain.Result, error) {
	cfg, err := slots.LoadConfig(e.cfg.SymbolConfigPath)
	if err != nil {
		return nil, err
	}
	table, err := cfg.BuildTable()
	if err != nil {
		return nil, err
	}
	e.tables.Swap(table)

	// The big-win cutoff rides along with the symbol config unless the
	// environment pins it
	threshold := e.cfg.BigWinThreshold
	if threshold <= 0 {
		threshold = cfg.BigWinThreshold
	}
	e.ledger.SetBigWinThreshold(threshold)

	logger.FromContext(ctx).Info("symbol table reloaded",
		"path", e.cfg.SymbolConfigPath, "symbols", len(table.Symbols()),
		"big_win_threshold", threshold)
	e.refresh()
	return &domain.Result{
		Kind:     domain.OutcomeAdmin,
		Messages: []string{fmt.Sprintf("symbol table reloaded: %d symbols", len(table.Symbols()))},
	}, nil
}

func (e *Engine) adminRefill(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	users, err := e.bucket.ForceRefill(ctx)
	if err != nil {
		return nil, err
	}
	quotas, err := e.quota.ResetToday(ctx, inv.Now)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("spins refilled", "users", users, "quotas_cleared", quotas)
	e.refresh()
	return &domain.Result{
		Kind: domain.OutcomeAdmin,
		Messages: []string{fmt.Sprintf("refilled spins for %d users, cleared %d premium counters",
			users, quotas)},
	}, nil
}
