// Package cli implements a command-line UI for the game: it prints a window (the viewport)
// of the board, and reads the player commands.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitryrazinkov/minesweeper-app/internal/session"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

const (
	DefaultViewWidth  = 40
	DefaultViewHeight = 20

	// labelEvery columns a coordinate is printed above the board.
	labelEvery = 5
)

// Board is what the UI reads from a game, see session.Session.
type Board interface {
	Width() int
	Height() int
	HasBomb(x, y int) bool
	IsOpened(x, y int) bool
	IsFlagged(x, y int) bool
	BombsAround(x, y int) int
	BombsLeft() int
	State() session.State
}

// CommandType of a player Command.
type CommandType int

const (
	CommandReveal CommandType = iota
	CommandFlag
	CommandGoto
	CommandNew
	CommandQuit
)

// Command read from the player. X and Y are only set for CommandReveal, CommandFlag and CommandGoto.
type Command struct {
	Type CommandType
	X, Y int
}

// ErrTooManyErrors is returned by ReadCommand when the player fails to type a valid command 3 times.
var ErrTooManyErrors = errors.New("failed to read command 3 times")

var (
	cellCommandParser = regexp.MustCompile(`^\s*([ofg])[\s,]+(-?\d+)[\s,]+(-?\d+)[\s,]*$`)
	cellCommandTypes  = map[string]CommandType{"o": CommandReveal, "f": CommandFlag, "g": CommandGoto}

	numberColors = [9]string{"", "12", "2", "9", "4", "1", "6", "0", "8"}

	styleExploded = lipgloss.NewStyle().Background(lipgloss.Color("9")).Foreground(lipgloss.Color("0")).Bold(true)
	styleBomb     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleFlag     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	styleClosed   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// ParseCommand parses one line typed by the player:
//
//	o x y: open (reveal) cell (x, y).
//	f x y: flag or unflag cell (x, y).
//	g x y: move the viewport to show cell (x, y).
//	n: new game.
//	q: quit.
func ParseCommand(text string) (cmd Command, err error) {
	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case "n", "new":
		cmd.Type = CommandNew
		return
	case "q", "quit", "exit":
		cmd.Type = CommandQuit
		return
	}
	matches := cellCommandParser.FindStringSubmatch(text)
	if len(matches) != 4 {
		err = errors.Errorf("can't parse command %q", text)
		return
	}
	cmd.Type = cellCommandTypes[matches[1]]
	if cmd.X, err = strconv.Atoi(matches[2]); err != nil {
		err = errors.Wrapf(err, "failed to parse x coordinate %q", matches[2])
		return
	}
	if cmd.Y, err = strconv.Atoi(matches[3]); err != nil {
		err = errors.Wrapf(err, "failed to parse y coordinate %q", matches[3])
		return
	}
	return
}

// UI prints the board and reads the commands of one player.
type UI struct {
	color, clearScreen bool
	reader             *bufio.Reader
	out                io.Writer

	viewWidth, viewHeight int
	originX, originY      int
}

// New creates a UI reading from stdin and printing to stdout.
func New(color bool, clearScreen bool) *UI {
	return &UI{
		color:       color,
		clearScreen: clearScreen,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		viewWidth:   DefaultViewWidth,
		viewHeight:  DefaultViewHeight,
	}
}

// WithIO changes where the UI reads commands from and prints to.
func (ui *UI) WithIO(in io.Reader, out io.Writer) *UI {
	ui.reader = bufio.NewReader(in)
	ui.out = out
	return ui
}

// WithViewport sets the maximum number of columns and rows of the board printed at once.
func (ui *UI) WithViewport(width, height int) *UI {
	ui.viewWidth = max(width, 1)
	ui.viewHeight = max(height, 1)
	return ui
}

// Viewport returns the window of the board printed: the top-left cell and the number of
// columns and rows.
func (ui *UI) Viewport(board Board) (x0, y0, width, height int) {
	ui.clampViewport(board)
	return ui.originX, ui.originY, min(ui.viewWidth, board.Width()), min(ui.viewHeight, board.Height())
}

// ResetViewport moves the viewport back to the top-left corner, e.g. for a new game.
func (ui *UI) ResetViewport() {
	ui.originX, ui.originY = 0, 0
}

// CenterOn moves the viewport so that (x, y) is as close to its center as possible.
func (ui *UI) CenterOn(board Board, x, y int) {
	ui.originX = x - ui.viewWidth/2
	ui.originY = y - ui.viewHeight/2
	ui.clampViewport(board)
}

// ShowCell moves the viewport the least needed for (x, y) to be visible.
func (ui *UI) ShowCell(board Board, x, y int) {
	if x < ui.originX {
		ui.originX = x
	} else if x >= ui.originX+ui.viewWidth {
		ui.originX = x - ui.viewWidth + 1
	}
	if y < ui.originY {
		ui.originY = y
	} else if y >= ui.originY+ui.viewHeight {
		ui.originY = y - ui.viewHeight + 1
	}
	ui.clampViewport(board)
}

func (ui *UI) clampViewport(board Board) {
	ui.originX = max(0, min(ui.originX, board.Width()-ui.viewWidth))
	ui.originY = max(0, min(ui.originY, board.Height()-ui.viewHeight))
}

func (ui *UI) render(style lipgloss.Style, s string) string {
	if !ui.color {
		return s
	}
	return style.Render(s)
}

// cellGlyph returns the 1 character representation of cell (x, y). Bombs are only shown
// once the game is over.
func (ui *UI) cellGlyph(board Board, x, y int, over bool) string {
	opened, flagged := board.IsOpened(x, y), board.IsFlagged(x, y)
	switch {
	case opened && board.HasBomb(x, y):
		return ui.render(styleExploded, "*")
	case flagged:
		if over && !board.HasBomb(x, y) {
			return ui.render(styleBomb, "X")
		}
		return ui.render(styleFlag, "F")
	case !opened:
		if over && board.HasBomb(x, y) {
			return ui.render(styleBomb, "*")
		}
		return ui.render(styleClosed, "#")
	}
	count := board.BombsAround(x, y)
	if count == 0 {
		return "."
	}
	return ui.render(lipgloss.NewStyle().Foreground(lipgloss.Color(numberColors[count])).Bold(true), strconv.Itoa(count))
}

// RenderBoard returns the viewport of the board, with the coordinates of the rows on the left
// and of every 5th column on top.
func (ui *UI) RenderBoard(board Board) string {
	x0, y0, width, height := ui.Viewport(board)
	state := board.State()
	over := state == session.StateLost || state == session.StateWon
	labelWidth := len(strconv.Itoa(y0 + height - 1))

	var buf strings.Builder
	header := []byte(strings.Repeat(" ", 2*width+labelEvery))
	for x := x0; x < x0+width; x++ {
		if x%labelEvery == 0 {
			copy(header[2*(x-x0):], strconv.Itoa(x))
		}
	}
	buf.WriteString(strings.Repeat(" ", labelWidth+1))
	buf.WriteString(ui.render(styleLabel, strings.TrimRight(string(header), " ")))
	buf.WriteByte('\n')

	for y := y0; y < y0+height; y++ {
		buf.WriteString(ui.render(styleLabel, fmt.Sprintf("%*d", labelWidth, y)))
		for x := x0; x < x0+width; x++ {
			buf.WriteByte(' ')
			buf.WriteString(ui.cellGlyph(board, x, y, over))
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// RenderStatus returns the one line summary of the game.
func (ui *UI) RenderStatus(board Board) string {
	x0, y0, width, height := ui.Viewport(board)
	return fmt.Sprintf("Board %dx%d, bombs left: %d, %s -- showing x=%d..%d, y=%d..%d",
		board.Width(), board.Height(), board.BombsLeft(), board.State(),
		x0, x0+width-1, y0, y0+height-1)
}

// Print the game status and the board viewport.
func (ui *UI) Print(board Board) {
	if ui.clearScreen {
		_, _ = fmt.Fprint(ui.out, "\033c")
	}
	_, _ = fmt.Fprintf(ui.out, "\n%s\n\n", ui.RenderStatus(board))
	ui.printCentered(ui.RenderBoard(board))
}

// PrintResult prints the banner of a finished game. It's a no-op if the game is not over.
func (ui *UI) PrintResult(board Board) {
	var (
		msg   string
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Padding(1, 2)
	)
	switch board.State() {
	case session.StateWon:
		msg = "*** All bombs found, you win!! Congratulations! ***"
		style = style.Background(lipgloss.Color("10"))
	case session.StateLost:
		msg = "*** BOOM! Game over. ***"
		style = style.Background(lipgloss.Color("9"))
	default:
		return
	}
	_, _ = fmt.Fprintln(ui.out)
	ui.printCentered(ui.render(style, msg))
	_, _ = fmt.Fprintln(ui.out)
}

// PrintError shows a failed command to the player.
func (ui *UI) PrintError(err error) {
	_, _ = fmt.Fprintf(ui.out, "    * %v\n", err)
}

// ReadCommand prompts the player and reads the next command. Invalid commands are reported
// and asked again, up to 3 times, after which ErrTooManyErrors is returned.
func (ui *UI) ReadCommand() (cmd Command, err error) {
	for numErrs := 0; numErrs < 3; numErrs++ {
		_, _ = fmt.Fprint(ui.out, "    command (o x y | f x y | g x y | n | q) > ")
		var text string
		text, err = ui.reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
			return
		}
		cmd, err = ParseCommand(text)
		if err == nil {
			return
		}
		_, _ = fmt.Fprintf(ui.out, "    * %v, please try again.\n", err)
	}
	err = ErrTooManyErrors
	return
}

// printCentered prints the block centered on the terminal, if the output is one.
func (ui *UI) printCentered(block string) {
	terminalWidth := 0
	if f, ok := ui.out.(*os.File); ok {
		terminalWidth, _, _ = term.GetSize(int(f.Fd()))
	}
	block = strings.TrimRight(block, "\n")
	indent := max((terminalWidth-lipgloss.Width(block))/2, 0)
	for _, line := range strings.Split(block, "\n") {
		if line == "" {
			_, _ = fmt.Fprintln(ui.out)
			continue
		}
		_, _ = fmt.Fprintf(ui.out, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}
