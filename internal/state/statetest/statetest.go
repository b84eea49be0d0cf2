// Package statetest provides helper functions to create tests using minesweeper boards.
package statetest

import (
	"strings"

	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
	. "github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/gomlx/exceptions"
)

// BuildBoard from a text layout: one line per row, '*' for a bomb and '.' for an empty cell.
// Leading/trailing spaces and empty lines are ignored, so layouts can be indented raw strings.
func BuildBoard(layout string) (cfg Config, bombs *bitvector.BitVector) {
	var rows []string
	for _, line := range strings.Split(layout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		exceptions.Panicf("statetest.BuildBoard: empty layout")
	}
	cfg.Width, cfg.Height = len(rows[0]), len(rows)
	bombs = bitvector.New(cfg.Size())
	for y, row := range rows {
		if len(row) != cfg.Width {
			exceptions.Panicf("statetest.BuildBoard: row %d has %d cells, wanted %d", y, len(row), cfg.Width)
		}
		for x, c := range row {
			switch c {
			case '*':
				bombs.Add(cfg.Index(x, y))
			case '.':
			default:
				exceptions.Panicf("statetest.BuildBoard: invalid cell %q at (%d, %d)", c, x, y)
			}
		}
	}
	cfg.Bombs = bombs.Count()
	return
}

// Render the board as text, one line per row: '#' for a closed cell, 'F' for a flagged one,
// '*' for an opened bomb, '.' for an opened cell without bombs around and the number of bombs
// around otherwise.
func Render(cfg Config, opened, bombs, flagged *bitvector.BitVector) string {
	var sb strings.Builder
	for y := range cfg.Height {
		for x := range cfg.Width {
			idx := cfg.Index(x, y)
			switch {
			case flagged.Has(idx):
				sb.WriteByte('F')
			case !opened.Has(idx):
				sb.WriteByte('#')
			case bombs.Has(idx):
				sb.WriteByte('*')
			default:
				if n := cfg.BombsAround(bombs, idx); n > 0 {
					sb.WriteByte(byte('0' + n))
				} else {
					sb.WriteByte('.')
				}
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Layout normalizes a layout (trims each line and drops empty lines) so it can be compared
// with the output of Render.
func Layout(layout string) string {
	var sb strings.Builder
	for _, line := range strings.Split(layout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
