// minesweeper plays the game on the terminal.
//
// Cells are opened with "o x y" and flagged with "f x y". Large boards are shown through a
// viewport, moved with "g x y".
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dmitryrazinkov/minesweeper-app/internal/presets"
	"github.com/dmitryrazinkov/minesweeper-app/internal/profilers"
	"github.com/dmitryrazinkov/minesweeper-app/internal/session"
	"github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/dmitryrazinkov/minesweeper-app/internal/ui/cli"
	"github.com/dmitryrazinkov/minesweeper-app/internal/ui/spinning"
	"github.com/dmitryrazinkov/minesweeper-app/internal/worker"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagGame = flag.String("game", "",
		"Game configuration: a preset name and/or overrides, e.g. \"expert\", \"expert,bombs=80\" "+
			"or \"width=20,height=10,bombs=30\". Defaults to the \"default\" preset.")
	flagPresets     = flag.String("presets", "", "YAML file with more game presets, added to the embedded ones.")
	flagListPresets = flag.Bool("list_presets", false, "List the available presets and exit.")
	flagColor       = flag.Bool("color", true, "Use colors in the terminal.")
	flagClear       = flag.Bool("clear", false, "Clear the screen before printing the board.")
	flagViewWidth   = flag.Int("view_width", cli.DefaultViewWidth, "Maximum number of columns of the board displayed.")
	flagViewHeight  = flag.Int("view_height", cli.DefaultViewHeight, "Maximum number of rows of the board displayed.")
	flagSeed        = flag.Uint64("seed", 0, "Seed for the boards generation. If 0 a random seed is used.")

	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagViewWidth <= 0 || *flagViewHeight <= 0 {
		exceptions.Panicf("invalid viewport -view_width=%d, -view_height=%d: both must be > 0", *flagViewWidth, *flagViewHeight)
	}

	// Capture Control+C
	var cancel func()
	globalCtx, cancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(cancel, 3*time.Second)
	defer cancel()

	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	table := loadPresets()
	if *flagListPresets {
		for _, name := range table.Names() {
			fmt.Printf("%-16s %s\n", name, table[name])
		}
		return
	}
	cfg, err := table.GameConfig(*flagGame)
	if err != nil {
		klog.Exitf("Invalid -game=%q: %+v", *flagGame, err)
	}

	// One worker serves all the games.
	var rng *rand.Rand
	if *flagSeed != 0 {
		rng = rand.New(rand.NewPCG(*flagSeed, *flagSeed))
	}
	service := worker.New(rng)
	defer service.Close()

	ui := cli.New(*flagColor, *flagClear).WithViewport(*flagViewWidth, *flagViewHeight)
	for {
		newGame, err := playGame(globalCtx, service, ui, cfg)
		if err != nil {
			klog.Exitf("Game failed: %+v", err)
		}
		if !newGame || globalCtx.Err() != nil {
			break
		}
	}
}

func loadPresets() presets.Table {
	if *flagPresets == "" {
		return presets.Default()
	}
	table, err := presets.Load(*flagPresets)
	if err != nil {
		klog.Exitf("Failed to load presets: %+v", err)
	}
	return table
}

// playGame runs one game until it is quit, or a new game is requested.
func playGame(ctx context.Context, offloader session.Offloader, ui *cli.UI, cfg state.Config) (newGame bool, err error) {
	game := session.New(offloader)
	err = spinning.While(ctx, func() error { return game.Start(ctx, cfg) })
	if err != nil {
		return
	}
	ui.ResetViewport()
	for {
		ui.Print(game)
		ui.PrintResult(game)

		var cmd cli.Command
		cmd, err = ui.ReadCommand()
		if errors.Is(err, cli.ErrTooManyErrors) {
			err = nil
			fmt.Println(strings.TrimSpace(helpText))
			continue
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return
		}

		switch cmd.Type {
		case cli.CommandQuit:
			return false, nil
		case cli.CommandNew:
			return true, nil
		case cli.CommandGoto:
			ui.CenterOn(game, cmd.X, cmd.Y)
		case cli.CommandFlag:
			if !game.FlagCell(cmd.X, cmd.Y) {
				ui.PrintError(errors.Errorf("can't change the flag of cell (%d, %d)", cmd.X, cmd.Y))
			}
		case cli.CommandReveal:
			revealErr := spinning.While(ctx, func() error { return game.RevealCell(ctx, cmd.X, cmd.Y) })
			if errors.Is(revealErr, session.ErrUnusable) {
				return false, revealErr
			}
			if revealErr != nil {
				ui.PrintError(revealErr)
				continue
			}
			ui.ShowCell(game, cmd.X, cmd.Y)
		}
	}
}

const helpText = `
Commands:
  o x y  open the cell at column x, row y
  f x y  flag (or unflag) the cell at column x, row y
  g x y  move the view to show the cell at column x, row y
  n      start a new game
  q      quit
`
