package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
	"github.com/dmitryrazinkov/minesweeper-app/internal/session"
	"github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/dmitryrazinkov/minesweeper-app/internal/state/statetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBoard implements Board over bitvectors built from a layout.
type fakeBoard struct {
	cfg                    state.Config
	bombs, opened, flagged *bitvector.BitVector
	state                  session.State
}

func newFakeBoard(layout string) *fakeBoard {
	cfg, bombs := statetest.BuildBoard(layout)
	return &fakeBoard{
		cfg:     cfg,
		bombs:   bombs,
		opened:  bitvector.New(cfg.Size()),
		flagged: bitvector.New(cfg.Size()),
		state:   session.StateInProgress,
	}
}

func (b *fakeBoard) Width() int               { return b.cfg.Width }
func (b *fakeBoard) Height() int              { return b.cfg.Height }
func (b *fakeBoard) HasBomb(x, y int) bool    { return b.bombs.Has(b.cfg.Index(x, y)) }
func (b *fakeBoard) IsOpened(x, y int) bool   { return b.opened.Has(b.cfg.Index(x, y)) }
func (b *fakeBoard) IsFlagged(x, y int) bool  { return b.flagged.Has(b.cfg.Index(x, y)) }
func (b *fakeBoard) BombsAround(x, y int) int { return b.cfg.BombsAround(b.bombs, b.cfg.Index(x, y)) }
func (b *fakeBoard) BombsLeft() int           { return b.cfg.Bombs - b.flagged.Count() }
func (b *fakeBoard) State() session.State     { return b.state }

func TestParseCommand(t *testing.T) {
	testCases := map[string]Command{
		"o 3 4":    {Type: CommandReveal, X: 3, Y: 4},
		" F 10,2 ": {Type: CommandFlag, X: 10, Y: 2},
		"g 100 7":  {Type: CommandGoto, X: 100, Y: 7},
		"n":        {Type: CommandNew},
		"quit":     {Type: CommandQuit},
		"o -1 0":   {Type: CommandReveal, X: -1, Y: 0},
	}
	for text, want := range testCases {
		got, err := ParseCommand(text)
		require.NoErrorf(t, err, "command %q", text)
		assert.Equalf(t, want, got, "command %q", text)
	}
	for _, text := range []string{"", "o 3", "x 1 2", "o a b", "o 1 2 3"} {
		_, err := ParseCommand(text)
		assert.Errorf(t, err, "command %q", text)
	}
}

func TestReadCommand(t *testing.T) {
	var out bytes.Buffer
	ui := New(false, false).WithIO(strings.NewReader("bad\no 1 2\nx\ny\nz\n"), &out)
	cmd, err := ui.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, Command{Type: CommandReveal, X: 1, Y: 2}, cmd)
	assert.Contains(t, out.String(), "please try again")

	_, err = ui.ReadCommand()
	assert.True(t, errors.Is(err, ErrTooManyErrors))

	_, err = ui.ReadCommand()
	assert.Equal(t, io.EOF, err)

	// Last line without a newline.
	ui = New(false, false).WithIO(strings.NewReader("q"), &out)
	cmd, err = ui.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, CommandQuit, cmd.Type)
}

func TestRenderBoard(t *testing.T) {
	board := newFakeBoard(`
		*.....
		......
		.....*`)
	for _, idx := range []int{1, 2, 7, 8} {
		board.opened.Add(idx)
	}
	board.flagged.Add(board.cfg.Index(5, 0))
	ui := New(false, false)
	assert.Equal(t, ""+
		"  0         5\n"+
		"0 # 1 . # # F\n"+
		"1 # 1 . # # #\n"+
		"2 # # # # # #\n", ui.RenderBoard(board))

	// Game over shows the bombs, and the wrong flags.
	board.state = session.StateLost
	board.opened.Add(0)
	assert.Equal(t, ""+
		"  0         5\n"+
		"0 * 1 . # # X\n"+
		"1 # 1 . # # #\n"+
		"2 # # # # # *\n", ui.RenderBoard(board))
}

func TestViewport(t *testing.T) {
	board := newFakeBoard(strings.Repeat(strings.Repeat(".", 20)+"\n", 11) + strings.Repeat(".", 19) + "*")
	require.Equal(t, 20, board.Width())
	require.Equal(t, 12, board.Height())
	ui := New(false, false).WithViewport(8, 4)

	x0, y0, width, height := ui.Viewport(board)
	assert.Equal(t, []int{0, 0, 8, 4}, []int{x0, y0, width, height})

	ui.CenterOn(board, 10, 6)
	x0, y0, _, _ = ui.Viewport(board)
	assert.Equal(t, []int{6, 4}, []int{x0, y0})

	// Clamped to the board.
	ui.CenterOn(board, 19, 11)
	x0, y0, _, _ = ui.Viewport(board)
	assert.Equal(t, []int{12, 8}, []int{x0, y0})
	rendered := ui.RenderBoard(board)
	lines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Repeat(" ", 9)+"15", lines[0])
	assert.Equal(t, " 8 # # # # # # # #", lines[1])

	ui.ShowCell(board, 0, 0)
	x0, y0, _, _ = ui.Viewport(board)
	assert.Equal(t, []int{0, 0}, []int{x0, y0})
	ui.ShowCell(board, 8, 4)
	x0, y0, _, _ = ui.Viewport(board)
	assert.Equal(t, []int{1, 1}, []int{x0, y0})

	// Viewport larger than the board.
	ui.WithViewport(100, 100).ResetViewport()
	x0, y0, width, height = ui.Viewport(board)
	assert.Equal(t, []int{0, 0, 20, 12}, []int{x0, y0, width, height})
	assert.Contains(t, ui.RenderStatus(board), "showing x=0..19, y=0..11")
}

func TestPrintResult(t *testing.T) {
	board := newFakeBoard(`
		*..
		...
		...`)
	var out bytes.Buffer
	ui := New(false, false).WithIO(strings.NewReader(""), &out)
	ui.PrintResult(board)
	assert.Empty(t, out.String())

	board.state = session.StateWon
	ui.PrintResult(board)
	assert.Contains(t, out.String(), "you win")

	out.Reset()
	board.state = session.StateLost
	ui.PrintResult(board)
	assert.Contains(t, out.String(), "Game over")

	out.Reset()
	ui.Print(board)
	assert.Contains(t, out.String(), "Board 3x3, bombs left: 1, Lost")
}
