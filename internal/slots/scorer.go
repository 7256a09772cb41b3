package slots

import (
	"fmt"
	"math"
)

// GridResult is the scored outcome of one drawn grid. The grid is ephemeral;
// callers persist only the derived summary.
type GridResult struct {
	Grid           [][]Symbol
	BasePayout     int64
	GridMultiplier int64
	Total          int64
	Breakdown      []string
	Jackpot        *JackpotHit
}

// JackpotHit describes the board-wide match that triggers the jackpot
type JackpotHit struct {
	Key       string
	Effective int
	BaseValue int64
}

// Scorer draws and scores grids against a symbol table.
// rng is injectable for deterministic tests and must return values in [0, 1).
type Scorer struct {
	rng               func() float64
	jackpotMinMatches int
}

// NewScorer creates a scorer with the given rng and jackpot threshold
func NewScorer(rng func() float64, jackpotMinMatches int) *Scorer {
	if jackpotMinMatches <= 0 {
		jackpotMinMatches = DefaultJackpotMinMatches
	}
	return &Scorer{rng: rng, jackpotMinMatches: jackpotMinMatches}
}

// Spin draws a size x size grid and scores it with the given bonus
// multiplier (1.0 for standard spins).
func (s *Scorer) Spin(table *Table, size int, bonusMult float64) *GridResult {
	grid := s.draw(table, size)
	return s.Score(table, grid, bonusMult)
}

func (s *Scorer) draw(table *Table, size int) [][]Symbol {
	grid := make([][]Symbol, size)
	for r := 0; r < size; r++ {
		row := make([]Symbol, size)
		for c := 0; c < size; c++ {
			row[c] = table.Draw(s.rng)
		}
		grid[r] = row
	}
	return grid
}

// Score computes line payouts, the grid multiplier, and the jackpot
// candidate for an already-drawn grid.
func (s *Scorer) Score(table *Table, grid [][]Symbol, bonusMult float64) *GridResult {
	size := len(grid)
	res := &GridResult{Grid: grid, GridMultiplier: 1}

	for r := 0; r < size; r++ {
		amt, info := scoreLine(table, grid[r])
		res.BasePayout += amt
		if amt > 0 {
			res.Breakdown = append(res.Breakdown, fmt.Sprintf("Row %d: %s", r+1, info))
		}
	}
	for c := 0; c < size; c++ {
		col := make([]Symbol, size)
		for r := 0; r < size; r++ {
			col[r] = grid[r][c]
		}
		amt, info := scoreLine(table, col)
		res.BasePayout += amt
		if amt > 0 {
			res.Breakdown = append(res.Breakdown, fmt.Sprintf("Col %d: %s", c+1, info))
		}
	}

	for _, row := range grid {
		for _, sym := range row {
			if sym.Mult && sym.Factor > 1 {
				res.GridMultiplier *= sym.Factor
			}
		}
	}

	if bonusMult <= 0 {
		bonusMult = 1.0
	}
	res.Total = int64(math.Floor(float64(res.BasePayout) * float64(res.GridMultiplier) * bonusMult))
	res.Jackpot = s.jackpotHit(table, grid)
	return res
}

// scoreLine pays the candidate maximizing effective count (matches plus
// wilds), ties broken by higher base value. A line of nothing but wilds pays
// with the designated wild's own base value when positive.
func scoreLine(table *Table, line []Symbol) (int64, string) {
	wildCount := 0
	counts := make(map[string]int)
	for _, sym := range line {
		if sym.Wild {
			wildCount++
			continue
		}
		if sym.Mult {
			continue
		}
		counts[sym.Key]++
	}

	type candidate struct {
		key   string
		eff   int
		value int64
	}
	var candidates []candidate
	if len(counts) > 0 {
		for key, cnt := range counts {
			ref, ok := table.Lookup(key)
			if !ok {
				continue
			}
			candidates = append(candidates, candidate{key: key, eff: cnt + wildCount, value: ref.BaseValue})
		}
	} else if wild := table.Wild(); wild != nil && wildCount >= MinLineMatch && wild.BaseValue > 0 {
		candidates = append(candidates, candidate{key: wild.Key, eff: wildCount, value: wild.BaseValue})
	}

	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if c.eff < MinLineMatch {
			continue
		}
		if best == nil || c.eff > best.eff || (c.eff == best.eff && c.value > best.value) {
			best = c
		}
	}
	if best == nil {
		return 0, ""
	}

	win := best.value * int64(best.eff)
	return win, fmt.Sprintf("%s x%d -> %d", best.key, best.eff, win)
}

// jackpotHit scans the whole board: a non-wild, non-multiplier symbol whose
// count plus total wilds reaches the threshold triggers the jackpot. Best
// candidate by effective count, ties by base value.
func (s *Scorer) jackpotHit(table *Table, grid [][]Symbol) *JackpotHit {
	wildCount := 0
	counts := make(map[string]int)
	for _, row := range grid {
		for _, sym := range row {
			if sym.Wild {
				wildCount++
				continue
			}
			if sym.Mult {
				continue
			}
			counts[sym.Key]++
		}
	}

	var best *JackpotHit
	for key, cnt := range counts {
		eff := cnt + wildCount
		if eff < s.jackpotMinMatches {
			continue
		}
		ref, ok := table.Lookup(key)
		if !ok {
			continue
		}
		if best == nil || eff > best.Effective || (eff == best.Effective && ref.BaseValue > best.BaseValue) {
			best = &JackpotHit{Key: key, Effective: eff, BaseValue: ref.BaseValue}
		}
	}
	return best
}
