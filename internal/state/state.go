// Package state holds the minesweeper board model: the board geometry, the bomb
// placement generator and the flood fill used to reveal cells.
//
// There is no 2D array anywhere: a cell (x, y) is addressed by its linear index
// x + y*width, and the board contents (bombs, opened and flagged cells) are
// bitvector.BitVector sets over [0, width*height).
package state

import (
	"fmt"
	"iter"

	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
	"github.com/pkg/errors"
)

const (
	// MinSide is the minimum width or height of a board.
	MinSide = 3

	// MaxSide is the maximum width or height of a board.
	MaxSide = 10000

	// NumNeighbours of a cell not on the edge of the board.
	NumNeighbours = 8
)

// ErrInvalidConfig is returned (wrapped) by Config.Validate.
var ErrInvalidConfig = errors.New("invalid game configuration")

// DefaultConfig used when the user doesn't configure anything.
var DefaultConfig = Config{Width: 50, Height: 50, Bombs: 10}

// Config of a game: the board geometry and the number of bombs.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Bombs  int `yaml:"bombs"`
}

// Validate returns an error wrapping ErrInvalidConfig if the configuration is out of range.
func (c Config) Validate() error {
	if c.Width < MinSide || c.Width > MaxSide {
		return errors.Wrapf(ErrInvalidConfig, "width=%d must be between %d and %d", c.Width, MinSide, MaxSide)
	}
	if c.Height < MinSide || c.Height > MaxSide {
		return errors.Wrapf(ErrInvalidConfig, "height=%d must be between %d and %d", c.Height, MinSide, MaxSide)
	}
	if c.Bombs < 1 || c.Bombs >= c.Size() {
		return errors.Wrapf(ErrInvalidConfig, "bombs=%d must be between 1 and %d (width*height-1)", c.Bombs, c.Size()-1)
	}
	return nil
}

// String returns a text representation of the configuration, in the same format accepted by
// the configuration strings.
func (c Config) String() string {
	return fmt.Sprintf("width=%d,height=%d,bombs=%d", c.Width, c.Height, c.Bombs)
}

// Size is the number of cells of the board.
func (c Config) Size() int {
	return c.Width * c.Height
}

// SafeCells is the number of cells without bombs: the number of cells to open to win.
func (c Config) SafeCells() int {
	return c.Size() - c.Bombs
}

// Contains returns whether (x, y) is a cell of the board.
func (c Config) Contains(x, y int) bool {
	return x >= 0 && x < c.Width && y >= 0 && y < c.Height
}

// Index returns the linear cell index of (x, y). It doesn't check the bounds.
func (c Config) Index(x, y int) int {
	return x + y*c.Width
}

// Coords returns the (x, y) coordinates of the cell index.
func (c Config) Coords(index int) (x, y int) {
	return index % c.Width, index / c.Width
}

// NeighboursIter iterates over the indices of the up to 8 cells around the given one.
// There is no wraparound: cells on the edges have fewer neighbours.
func (c Config) NeighboursIter(index int) iter.Seq[int] {
	return func(yield func(int) bool) {
		x, y := c.Coords(index)
		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= c.Height {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if (dx == 0 && dy == 0) || nx < 0 || nx >= c.Width {
					continue
				}
				if !yield(nx + ny*c.Width) {
					return
				}
			}
		}
	}
}

// BombsAround counts the bombs in the cells around the given one.
func (c Config) BombsAround(bombs *bitvector.BitVector, index int) (count int) {
	for neighbour := range c.NeighboursIter(index) {
		if bombs.Has(neighbour) {
			count++
		}
	}
	return
}
