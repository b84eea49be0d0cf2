package state_test

import (
	"math/rand/v2"
	"testing"

	. "github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/stretchr/testify/require"
)

func TestGenerateCountAndSafeCell(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	configs := []Config{
		{3, 3, 1},
		{3, 3, 8},
		{5, 3, 7},
		{3, 7, 20},
		{30, 16, 99},
		{50, 50, 10},
		{100, 100, 9999}, // A single empty cell.
	}
	for _, cfg := range configs {
		require.NoError(t, cfg.Validate())
		for range 50 {
			bombs, safeCell := Generate(cfg, rng)
			require.Equalf(t, cfg.Size(), bombs.Size(), "config %s", cfg)
			require.Equalf(t, cfg.Bombs, bombs.Count(), "config %s", cfg)
			require.Truef(t, safeCell >= 0 && safeCell < cfg.Size(), "config %s: safeCell=%d", cfg, safeCell)
			require.Falsef(t, bombs.Has(safeCell), "config %s: safeCell=%d holds a bomb", cfg, safeCell)
		}
	}
}

// TestGenerateUniform checks that, on a 3x3 board with one bomb, every (bomb, safeCell)
// pair is equally likely: both the bomb placement and the safe cell selection are uniform.
func TestGenerateUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	cfg := Config{Width: 3, Height: 3, Bombs: 1}
	const numPairs = 9 * 8
	const numTrials = numPairs * 1000

	var counts [9][9]int
	for range numTrials {
		bombs, safeCell := Generate(cfg, rng)
		bomb := -1
		for i := range bombs.All() {
			bomb = i
		}
		require.NotEqual(t, bomb, safeCell)
		counts[bomb][safeCell]++
	}

	// Expected 1000 per pair with a standard deviation of ~31.6.
	for bomb := range 9 {
		for safeCell := range 9 {
			if bomb == safeCell {
				continue
			}
			require.InDeltaf(t, 1000, counts[bomb][safeCell], 200,
				"bomb=%d, safeCell=%d: count %d too far from uniform", bomb, safeCell, counts[bomb][safeCell])
		}
	}
}

// TestGenerateUniformSafeCellDenseBoard stresses the case where cell 0 is often the
// safe cell, the one cell the generation pass never visits.
func TestGenerateUniformSafeCellDenseBoard(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	cfg := Config{Width: 3, Height: 3, Bombs: 7}
	const numTrials = 36000

	var counts [9]int
	for range numTrials {
		bombs, safeCell := Generate(cfg, rng)
		require.False(t, bombs.Has(safeCell))
		counts[safeCell]++
	}
	// Each cell is the safe cell with probability 2/9 * 1/2 = 1/9: expected 4000 (stddev ~60).
	for cell, count := range counts {
		require.InDeltaf(t, 4000, count, 400, "cell %d chosen as safe cell %d times", cell, count)
	}
}
