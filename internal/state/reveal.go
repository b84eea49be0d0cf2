package state

import (
	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"
)

// RevealRegion returns the set of cells that a click on the given cell index opens: the
// connected region of cells with no bombs around reachable from it, plus the ring of
// numbered cells bounding that region. Cells with bombs around are included but don't
// propagate.
//
// It doesn't modify opened or bombs. Cells already opened are never included.
//
// The traversal uses an explicit stack: boards can have up to 10^8 cells, and a recursive
// version would blow up the call stack.
func RevealRegion(cfg Config, index int, opened, bombs *bitvector.BitVector) (region *bitvector.BitVector) {
	// Every cell pushed is eventually popped and opened, so the visited set is the region.
	visited := bitvector.New(cfg.Size())
	stack := []int{index}
	visited.Add(index)
	for len(stack) > 0 {
		cell := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cfg.BombsAround(bombs, cell) == 0 {
			for neighbour := range cfg.NeighboursIter(cell) {
				if !opened.Has(neighbour) && !visited.Has(neighbour) {
					stack = append(stack, neighbour)
					visited.Add(neighbour)
				}
			}
		}
	}
	return visited
}

// FloodFill opens the cell (x, y) and, if it has no bombs around, the region around it,
// see RevealRegion. Flags on the opened cells are cleared.
//
// The caller must make sure (x, y) is on the board, not opened, not flagged and not a bomb.
// It returns the number of cells opened.
func FloodFill(cfg Config, x, y int, opened, bombs, flagged *bitvector.BitVector) int {
	size := cfg.Size()
	if opened.Size() != size || bombs.Size() != size || flagged.Size() != size {
		exceptions.Panicf("FloodFill(%s): bitvectors sizes (opened=%d, bombs=%d, flagged=%d) don't match the board size %d",
			cfg, opened.Size(), bombs.Size(), flagged.Size(), size)
	}
	if !cfg.Contains(x, y) {
		exceptions.Panicf("FloodFill(%s): cell (%d, %d) is not on the board", cfg, x, y)
	}

	// Collect everything first, so the board is only modified once nothing else can fail.
	region := RevealRegion(cfg, cfg.Index(x, y), opened, bombs)
	for cell := range region.All() {
		opened.Add(cell)
		flagged.Remove(cell)
	}
	klog.V(2).Infof("FloodFill(%d, %d) on %s: opened %d cells", x, y, cfg, region.Count())
	return region.Count()
}
