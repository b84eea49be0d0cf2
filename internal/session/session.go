// Package session implements one game of minesweeper: it owns the bombs, opened and flagged
// bitsets of the board, enforces the game rules, and offloads the board generation and
// the flood fill reveals to a worker (see package worker).
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
	"github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/dmitryrazinkov/minesweeper-app/internal/worker"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// State of a game Session.
type State uint8

const (
	StateNotStarted State = iota
	StateInProgress
	StateLost
	StateWon
)

//go:generate go tool enumer -type=State -trimprefix=State -values -text session.go

var (
	// ErrAlreadyStarted is returned by Start on a session that was already started.
	ErrAlreadyStarted = errors.New("game session already started")

	// ErrNotInProgress is returned by commands that require a game in progress.
	ErrNotInProgress = errors.New("game session is not in progress")

	// ErrOffBoard is returned when a command addresses a cell outside the board.
	ErrOffBoard = errors.New("cell is not on the board")

	// ErrUnusable is returned by every command after the session lost its board to a
	// malformed worker reply.
	ErrUnusable = errors.New("game session is unusable")
)

// Offloader runs the board computations. It is implemented by *worker.Service.
//
// The buffers in a worker.RevealRequest are moved to the Offloader. On success the reply
// carries the updated board. On error the Session goes back to its own copy of the board,
// and the reply buffers are dropped.
type Offloader interface {
	Generate(ctx context.Context, width, height, bombs int) (worker.GenerateReply, error)
	Reveal(ctx context.Context, req worker.RevealRequest) (worker.RevealReply, error)
}

// Session is one game. Create it with New, and start it with Start.
//
// It is safe for concurrent use: commands and the board accessors are serialized, so there
// is at most one request to the Offloader in flight per session. Busy, State, Config, Width
// and Height don't take the lock, and never wait on the Offloader.
type Session struct {
	offloader Offloader

	mu   sync.Mutex
	busy atomic.Bool
	cfg  state.Config

	// state holds a State, geometry a copy of cfg once started: both are read without the lock.
	state    atomic.Uint32
	geometry atomic.Pointer[state.Config]

	// unusable is set if the board was lost to a malformed reply.
	unusable error

	bombs, opened, flagged *bitvector.BitVector

	// safeCell is the cell where a bomb is moved if the first click hits one. -1 once consumed.
	safeCell int
}

// New creates a NotStarted session that will use the given offloader.
func New(offloader Offloader) *Session {
	s := &Session{
		offloader: offloader,
		safeCell:  -1,
	}
	s.setState(StateNotStarted)
	return s
}

func (s *Session) setState(st State) {
	s.state.Store(uint32(st))
}

// Start generates the board and moves the session to InProgress.
//
// If it fails the session stays NotStarted, and Start can be called again.
func (s *Session) Start(ctx context.Context, cfg state.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateNotStarted {
		return errors.Wrapf(ErrAlreadyStarted, "can't start %s, session is %s", cfg, s.State())
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.busy.Store(true)
	reply, err := s.offloader.Generate(ctx, cfg.Width, cfg.Height, cfg.Bombs)
	s.busy.Store(false)
	if err != nil {
		return errors.WithMessagef(err, "failed to start game %s", cfg)
	}
	bombs, err := bitvector.Adopt(reply.Bombs)
	if err != nil {
		return errors.Wrapf(worker.ErrTransport, "malformed generated board for %s: %v", cfg, err)
	}
	switch {
	case bombs.Size() != cfg.Size():
		return errors.Wrapf(worker.ErrTransport, "generated board for %s has %d cells", cfg, bombs.Size())
	case bombs.Count() != cfg.Bombs:
		return errors.Wrapf(worker.ErrTransport, "generated board for %s has %d bombs", cfg, bombs.Count())
	case reply.SafeCell < 0 || reply.SafeCell >= cfg.Size() || bombs.Has(reply.SafeCell):
		return errors.Wrapf(worker.ErrTransport, "generated board for %s has an invalid safe cell %d", cfg, reply.SafeCell)
	}

	s.cfg = cfg
	s.bombs = bombs
	s.opened = bitvector.New(cfg.Size())
	s.flagged = bitvector.New(cfg.Size())
	s.safeCell = reply.SafeCell
	s.geometry.Store(&cfg)
	s.setState(StateInProgress)
	klog.V(1).Infof("Started game %s", cfg)
	return nil
}

// RevealCell opens the cell (x, y), and the region around it if it has no bombs around.
//
// It is a no-op if the game is not in progress, or if the cell is already opened or flagged.
// The first click of a game never hits a bomb. Hitting a bomb afterward loses the game, and
// opening every cell without a bomb wins it.
//
// If the worker fails, the error is returned and the board is left as it was before the call,
// so the command can be retried.
func (s *Session) RevealCell(ctx context.Context, x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable != nil {
		return s.unusable
	}
	if s.State() != StateInProgress {
		return nil
	}
	if !s.cfg.Contains(x, y) {
		return errors.Wrapf(ErrOffBoard, "RevealCell(%d, %d) on a %dx%d board", x, y, s.cfg.Width, s.cfg.Height)
	}
	idx := s.cfg.Index(x, y)
	if s.opened.Has(idx) || s.flagged.Has(idx) {
		return nil
	}

	relocated := false
	if s.bombs.Has(idx) {
		if s.opened.Count() == 0 && s.safeCell >= 0 {
			// First click: the bomb moves to the safe cell.
			klog.V(2).Infof("First click on a bomb at (%d, %d): moving it to cell %d", x, y, s.safeCell)
			s.bombs.Remove(idx)
			s.bombs.Add(s.safeCell)
			relocated = true
		} else {
			s.opened.Add(idx)
			s.setState(StateLost)
			klog.V(1).Infof("Game %s lost at (%d, %d)", s.cfg, x, y)
			return nil
		}
	}

	if err := s.offloadReveal(ctx, x, y); err != nil {
		if relocated && s.unusable == nil {
			// Back to the board before the click, where the safe cell is still unused.
			s.bombs.Remove(s.safeCell)
			s.bombs.Add(idx)
		}
		return err
	}
	if relocated {
		s.safeCell = -1
	}
	if s.opened.Count() == s.cfg.SafeCells() {
		s.setState(StateWon)
		klog.V(1).Infof("Game %s won", s.cfg)
	}
	return nil
}

// offloadReveal sends the board to the worker to flood fill from (x, y), and adopts the board
// it gets back.
//
// If the worker fails, the board is restored to what it was before the call. A reply that
// doesn't pass checkReveal makes the session unusable.
func (s *Session) offloadReveal(ctx context.Context, x, y int) error {
	before := board{opened: s.opened.Clone(), bombs: s.bombs.Clone(), flagged: s.flagged.Clone()}
	req := worker.RevealRequest{
		X: x, Y: y,
		Width: s.cfg.Width, Height: s.cfg.Height,
		Opened:  s.opened.Transfer(),
		Bombs:   s.bombs.Transfer(),
		Flagged: s.flagged.Transfer(),
	}
	s.busy.Store(true)
	reply, revealErr := s.offloader.Reveal(ctx, req)
	s.busy.Store(false)

	if revealErr != nil {
		s.opened, s.bombs, s.flagged = before.opened, before.bombs, before.flagged
		return revealErr
	}
	err := s.adopt(reply)
	if err == nil {
		err = checkReveal(before, board{opened: s.opened, bombs: s.bombs, flagged: s.flagged}, s.cfg.Index(x, y))
	}
	if err != nil {
		s.unusable = errors.WithMessagef(ErrUnusable, "reveal(%d, %d): %v", x, y, err)
		klog.Errorf("Game %s: %v", s.cfg, s.unusable)
		return s.unusable
	}
	klog.V(2).Infof("Reveal(%d, %d): %d cells opened", x, y, s.opened.Count()-before.opened.Count())
	return nil
}

// board groups the bitsets of a game.
type board struct {
	opened, bombs, flagged *bitvector.BitVector
}

// checkReveal verifies that a reveal of cell index only opened cells: bombs don't move,
// opened cells stay opened and never hold a bomb or a flag, and flags can only be removed.
func checkReveal(before, after board, index int) error {
	var problem string
	switch {
	case !after.bombs.Equal(before.bombs):
		problem = "bombs changed"
	case !after.opened.Has(index):
		problem = "cell not opened"
	case !before.opened.IsSubsetOf(after.opened):
		problem = "opened cells were closed"
	case after.opened.Intersects(after.bombs):
		problem = "a bomb was opened"
	case after.opened.Intersects(after.flagged):
		problem = "opened cells are flagged"
	case !after.flagged.IsSubsetOf(before.flagged):
		problem = "flags were added"
	default:
		return nil
	}
	return errors.Wrapf(worker.ErrTransport, "invalid reveal reply: %s", problem)
}

// adopt takes back the board bitsets from the reply.
func (s *Session) adopt(reply worker.RevealReply) error {
	vecs := make([]*bitvector.BitVector, 3)
	for ii, buf := range []bitvector.Buffer{reply.Opened, reply.Bombs, reply.Flagged} {
		if buf.Size != s.cfg.Size() {
			return errors.Wrapf(worker.ErrTransport, "reply buffer has size %d, board has %d cells", buf.Size, s.cfg.Size())
		}
		v, err := bitvector.Adopt(buf)
		if err != nil {
			return errors.Wrapf(worker.ErrTransport, "%v", err)
		}
		vecs[ii] = v
	}
	s.opened, s.bombs, s.flagged = vecs[0], vecs[1], vecs[2]
	return nil
}

// FlagCell toggles the flag on cell (x, y) and returns whether it changed.
//
// Opened cells can't be flagged, and there can't be more flags than bombs. It returns false
// if the game is not in progress or (x, y) is not on the board.
func (s *Session) FlagCell(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable != nil || s.State() != StateInProgress || !s.cfg.Contains(x, y) {
		return false
	}
	idx := s.cfg.Index(x, y)
	if s.opened.Has(idx) {
		return false
	}
	if !s.flagged.Has(idx) && s.cfg.Bombs-s.flagged.Count() <= 0 {
		return false
	}
	s.flagged.Flip(idx)
	return true
}

// cellIndex returns the index of (x, y) if the board is readable and (x, y) is on it.
// It must be called with the lock held.
func (s *Session) cellIndex(x, y int) (int, bool) {
	if s.unusable != nil || s.State() == StateNotStarted || !s.cfg.Contains(x, y) {
		return 0, false
	}
	return s.cfg.Index(x, y), true
}

// HasBomb returns whether (x, y) holds a bomb.
func (s *Session) HasBomb(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.cellIndex(x, y)
	return ok && s.bombs.Has(idx)
}

// IsOpened returns whether (x, y) was opened.
func (s *Session) IsOpened(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.cellIndex(x, y)
	return ok && s.opened.Has(idx)
}

// IsFlagged returns whether (x, y) is flagged.
func (s *Session) IsFlagged(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.cellIndex(x, y)
	return ok && s.flagged.Has(idx)
}

// BombsAround returns the number of bombs in the neighbours of (x, y).
func (s *Session) BombsAround(x, y int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.cellIndex(x, y)
	if !ok {
		return 0
	}
	return s.cfg.BombsAround(s.bombs, idx)
}

// BombsLeft is the number of bombs minus the number of flags.
func (s *Session) BombsLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable != nil || s.State() == StateNotStarted {
		return 0
	}
	return s.cfg.Bombs - s.flagged.Count()
}

// OpenedCount returns the number of opened cells.
func (s *Session) OpenedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unusable != nil || s.State() == StateNotStarted {
		return 0
	}
	return s.opened.Count()
}

// GameOver returns whether the game was lost.
func (s *Session) GameOver() bool {
	return s.State() == StateLost
}

// Winner returns whether the game was won.
func (s *Session) Winner() bool {
	return s.State() == StateWon
}

// State returns the current state of the game. It doesn't block.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Config returns the game configuration. It is the zero value before the game is started.
// It doesn't block.
func (s *Session) Config() state.Config {
	if cfg := s.geometry.Load(); cfg != nil {
		return *cfg
	}
	return state.Config{}
}

// Width of the board.
func (s *Session) Width() int { return s.Config().Width }

// Height of the board.
func (s *Session) Height() int { return s.Config().Height }

// Busy returns whether the session is waiting on the worker. It doesn't block.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Err returns the error that made the session unusable, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unusable
}
