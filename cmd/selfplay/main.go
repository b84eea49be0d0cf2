// selfplay plays many games concurrently with a naive player that opens random cells, all
// sessions sharing one worker. It reports the results, and fails if any game is lost on its
// first click.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dmitryrazinkov/minesweeper-app/internal/presets"
	"github.com/dmitryrazinkov/minesweeper-app/internal/profilers"
	"github.com/dmitryrazinkov/minesweeper-app/internal/session"
	"github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/dmitryrazinkov/minesweeper-app/internal/ui/spinning"
	"github.com/dmitryrazinkov/minesweeper-app/internal/worker"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	flagGame        = flag.String("game", "beginner", "Game configuration, see minesweeper -help.")
	flagPresets     = flag.String("presets", "", "YAML file with more game presets, added to the embedded ones.")
	flagNumGames    = flag.Int("num_games", 100, "Number of games to play.")
	flagParallelism = flag.Int("parallelism", 0, "If > 0 ignore GOMAXPROCS and play "+
		"these many games simultaneously.")
	flagSeed = flag.Uint64("seed", 0, "Seed for the boards and the player. If 0 a random seed is used.")
)

// Globals
var (
	// globalCtx used everywhere. It is cancelled when the program is about to exit either by
	// an interrupt (ctrl+C) or by reaching the end.
	globalCtx = context.Background()
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagNumGames <= 0 {
		klog.Fatalf("Invalid -num_games=%d", *flagNumGames)
	}

	// Capture Control+C
	var globalCancel func()
	globalCtx, globalCancel = context.WithCancel(context.Background())
	spinning.SafeInterrupt(globalCancel, 5*time.Second)
	defer globalCancel()

	profilers.Setup(globalCtx)
	defer profilers.OnQuit()

	table := presets.Default()
	if *flagPresets != "" {
		table = must.M1(presets.Load(*flagPresets))
	}
	cfg := must.M1(table.GameConfig(*flagGame))

	seed := *flagSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	klog.V(1).Infof("Playing %d games of %s with seed %d", *flagNumGames, cfg, seed)
	service := worker.New(rand.New(rand.NewPCG(seed, 0)))
	defer service.Close()
	must.M(runGames(globalCtx, service, cfg, seed))
	klog.V(1).Infof("Worker served %d requests", service.NumServed())
}

// Results of the games played so far.
type Results struct {
	mu                  sync.Mutex
	start               time.Time
	won, lost           int
	clicks, cellsOpened int
	played, total       int
}

func (r *Results) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Played %d of %d: ", r.played, r.total))
	parts = append(parts, fmt.Sprintf("%d won / %d lost - ", r.won, r.lost))
	if r.played > 0 {
		parts = append(parts, fmt.Sprintf("%.1f clicks/game, %.1f cells opened/game - ",
			float64(r.clicks)/float64(r.played), float64(r.cellsOpened)/float64(r.played)))
	}
	parts = append(parts, time.Since(r.start).String())
	parts = append(parts, "\033[0K")
	return strings.Join(parts, "")
}

func runGames(ctx context.Context, offloader session.Offloader, cfg state.Config, seed uint64) error {
	r := &Results{
		start: time.Now(),
		total: *flagNumGames,
	}
	var wg errgroup.Group
	wg.SetLimit(getParallelism())
	fmt.Printf("\r%s", r)

	for gameIdx := range r.total {
		wg.Go(func() error {
			rng := rand.New(rand.NewPCG(seed, uint64(gameIdx)+1))
			result, err := runGame(ctx, gameIdx, offloader, cfg, rng)
			if err != nil || ctx.Err() != nil {
				return err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			if result.won {
				r.won++
			} else {
				r.lost++
			}
			r.clicks += result.clicks
			r.cellsOpened += result.cellsOpened
			r.played++
			fmt.Printf("\r%s", r)
			return nil
		})
	}
	err := wg.Wait()
	fmt.Printf("\r%s", r)
	fmt.Println()
	if ctx.Err() != nil {
		fmt.Printf("Interrupted: %s\n", ctx.Err())
		return nil
	}
	return err
}

type gameResult struct {
	won                 bool
	clicks, cellsOpened int
}

// runGame plays one game opening cells in random order, until it is won or lost.
func runGame(ctx context.Context, gameIdx int, offloader session.Offloader, cfg state.Config, rng *rand.Rand) (result gameResult, err error) {
	if klog.V(2).Enabled() {
		klog.Infof("Starting game %d", gameIdx)
		defer klog.Infof("Finished game %d", gameIdx)
	}
	game := session.New(offloader)
	if err = game.Start(ctx, cfg); err != nil {
		return
	}
	for _, idx := range rng.Perm(cfg.Size()) {
		if ctx.Err() != nil {
			return
		}
		x, y := cfg.Coords(idx)
		if game.IsOpened(x, y) {
			continue
		}
		if err = game.RevealCell(ctx, x, y); err != nil {
			err = errors.WithMessagef(err, "game %d", gameIdx)
			return
		}
		result.clicks++
		if result.clicks == 1 && game.GameOver() {
			err = errors.Errorf("game %d (%s) lost on its first click at (%d, %d)", gameIdx, cfg, x, y)
			return
		}
		if game.GameOver() || game.Winner() {
			break
		}
	}
	result.won = game.Winner()
	result.cellsOpened = game.OpenedCount()
	if !game.GameOver() && !result.won {
		err = errors.Errorf("game %d (%s) not finished after opening every cell", gameIdx, cfg)
	}
	return
}

// getParallelism returns the parallelism.
func getParallelism() (parallelism int) {
	parallelism = runtime.GOMAXPROCS(0)
	if *flagParallelism > 0 {
		parallelism = *flagParallelism
	}
	return
}
