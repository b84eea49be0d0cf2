package state

// This file holds the board generator: a uniformly random bomb placement, plus the
// reserved safe cell used to guarantee that the first click never loses.

import (
	"math/rand/v2"

	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
	"k8s.io/klog/v2"
)

// Generate places cfg.Bombs bombs uniformly at random on the board, and picks safeCell
// uniformly among the cells left without a bomb.
//
// It is a single Fisher-Yates pass over the bomb/no-bomb labels (all bombs start at the
// lowest indices) combined with reservoir-style sampling of the safe cell: position i
// is final once step i is done, so the empty cells are seen one by one, in decreasing
// index order, and the target-th one is kept.
//
// cfg must be valid, see Config.Validate.
func Generate(cfg Config, rng *rand.Rand) (bombs *bitvector.BitVector, safeCell int) {
	size := cfg.Size()
	emptyRemaining := cfg.SafeCells()
	target := 1 + rng.IntN(emptyRemaining)

	bombs = bitvector.New(size)
	for i := range cfg.Bombs {
		bombs.Add(i)
	}

	// Cell 0 is the only one never visited by the loop: if the target is not met
	// during the pass, cell 0 is necessarily the last empty cell.
	safeCell = 0
	for i := size - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		iIsBomb, jIsBomb := bombs.Has(i), bombs.Has(j)
		if !jIsBomb {
			// Cell i becomes final and empty.
			if emptyRemaining == target {
				safeCell = i
			}
			emptyRemaining--
		}
		if iIsBomb != jIsBomb {
			bombs.Flip(i)
			bombs.Flip(j)
		}
	}
	if klog.V(2).Enabled() {
		klog.Infof("Generated board %s: %d bombs placed, safe cell %d", cfg, bombs.Count(), safeCell)
	}
	return
}
