// Package worker runs the expensive board computations (generation and flood fill) on a
// dedicated goroutine, and exchanges the board bitsets with the callers by moving
// bitvector.Buffer values through a channel.
//
// There is one Service per program: create it at start up with New and inject it in each
// game session. Requests are served one at a time, in arrival order, and the worker keeps
// no state between requests: it is given, and returns, complete buffers each time.
//
// Ownership: buffers sent in a request belong to the worker until the reply is delivered.
// Every reply, including failures, moves buffers back to the caller; on failure they are
// the request buffers, unchanged.
package worker

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
	"github.com/dmitryrazinkov/minesweeper-app/internal/state"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrClosed is returned for requests made after (or queued while) the Service was closed.
	ErrClosed = errors.New("worker service closed")

	// ErrTransport is returned (wrapped) when the worker fails while serving a request, or
	// replies with malformed data.
	ErrTransport = errors.New("worker transport failure")

	// ErrInvalidRequest is returned (wrapped) for requests the worker refuses to serve.
	ErrInvalidRequest = errors.New("invalid worker request")
)

// Service owns the worker goroutine.
type Service struct {
	requests  chan *request
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// rng is only used from the worker goroutine.
	rng *rand.Rand

	numServed atomic.Int64
}

// New creates the Service and starts its worker goroutine.
//
// rng is the source of randomness for the board generation. If nil, a randomly seeded one is used.
func New(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &Service{
		requests: make(chan *request),
		quit:     make(chan struct{}),
		rng:      rng,
	}
	s.wg.Add(1)
	go s.dispatcher()
	return s
}

// Close stops the worker goroutine, after the request being served (if any) is answered.
// Requests sent afterward fail with ErrClosed. It is safe to call Close more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

// NumServed returns the number of requests served so far, successful or not.
func (s *Service) NumServed() int64 {
	return s.numServed.Load()
}

func (s *Service) dispatcher() {
	defer s.wg.Done()
	klog.V(1).Infof("Started minesweeper worker")
	defer func() {
		klog.V(1).Infof("Stopped minesweeper worker after %d requests", s.NumServed())
	}()
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.requests:
			s.serve(req)
		}
	}
}

// send hands req to the worker and waits for the reply.
//
// ctx is only checked while waiting for the worker to accept the request: once accepted, the
// worker owns the request buffers and the reply is always waited for.
func (s *Service) send(ctx context.Context, req *request) error {
	select {
	case <-s.quit:
		req.returnBuffers()
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		req.returnBuffers()
		return errors.Wrap(err, "request to worker not sent")
	}
	select {
	case s.requests <- req:
	case <-s.quit:
		req.returnBuffers()
		return ErrClosed
	case <-ctx.Done():
		req.returnBuffers()
		return errors.Wrap(ctx.Err(), "request to worker not sent")
	}
	<-req.done
	return req.err
}

// serve runs on the worker goroutine. Panics are converted to errors wrapping ErrTransport.
func (s *Service) serve(req *request) {
	defer close(req.done)
	defer s.numServed.Add(1)
	start := time.Now()
	var err error
	exception := exceptions.TryCatch[error](func() {
		switch {
		case req.generate != nil:
			err = s.serveGenerate(req)
		case req.reveal != nil:
			err = s.serveReveal(req)
		default:
			err = errors.Wrap(ErrInvalidRequest, "empty request")
		}
	})
	if exception != nil {
		err = errors.Wrapf(ErrTransport, "worker failed: %v", exception)
	}
	if err != nil {
		klog.Errorf("Worker request failed: %v", err)
		req.returnBuffers()
		req.err = err
		return
	}
	klog.V(2).Infof("Worker request served in %s", time.Since(start))
}

// Generate asks the worker for a new board. See state.Generate.
func (s *Service) Generate(ctx context.Context, width, height, bombs int) (GenerateReply, error) {
	req := newRequest()
	req.generate = &GenerateRequest{Width: width, Height: height, Bombs: bombs}
	if err := s.send(ctx, req); err != nil {
		return GenerateReply{}, errors.WithMessagef(err, "generate(width=%d, height=%d, bombs=%d)", width, height, bombs)
	}
	return req.generateReply, nil
}

func (s *Service) serveGenerate(req *request) error {
	r := req.generate
	cfg := state.Config{Width: r.Width, Height: r.Height, Bombs: r.Bombs}
	if err := cfg.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidRequest, "generate: %v", err)
	}
	bombs, safeCell := state.Generate(cfg, s.rng)
	req.generateReply = GenerateReply{Bombs: bombs.Transfer(), SafeCell: safeCell}
	return nil
}

// Reveal asks the worker to flood fill from cell (req.X, req.Y). See state.FloodFill.
//
// The request buffers are moved to the worker: whatever the outcome, the returned reply holds
// the buffers to adopt back. On error these are the original ones, unchanged.
func (s *Service) Reveal(ctx context.Context, revealReq RevealRequest) (RevealReply, error) {
	req := newRequest()
	req.reveal = &revealReq
	if err := s.send(ctx, req); err != nil {
		return req.revealReply, errors.WithMessagef(err, "reveal(%d, %d)", revealReq.X, revealReq.Y)
	}
	return req.revealReply, nil
}

func (s *Service) serveReveal(req *request) error {
	r := req.reveal
	cfg := state.Config{Width: r.Width, Height: r.Height}
	if r.Width < state.MinSide || r.Width > state.MaxSide || r.Height < state.MinSide || r.Height > state.MaxSide {
		return errors.Wrapf(ErrInvalidRequest, "reveal: invalid board dimensions %dx%d", r.Width, r.Height)
	}
	if !cfg.Contains(r.X, r.Y) {
		return errors.Wrapf(ErrInvalidRequest, "reveal: cell (%d, %d) is not on the %dx%d board", r.X, r.Y, r.Width, r.Height)
	}
	opened, err := adoptForBoard(cfg, "opened", r.Opened)
	if err != nil {
		return err
	}
	bombs, err := adoptForBoard(cfg, "bombs", r.Bombs)
	if err != nil {
		return err
	}
	flagged, err := adoptForBoard(cfg, "flagged", r.Flagged)
	if err != nil {
		return err
	}
	cfg.Bombs = bombs.Count()

	idx := cfg.Index(r.X, r.Y)
	if bombs.Has(idx) {
		return errors.Wrapf(ErrInvalidRequest, "reveal: cell (%d, %d) holds a bomb", r.X, r.Y)
	}
	if !opened.Has(idx) && !flagged.Has(idx) {
		state.FloodFill(cfg, r.X, r.Y, opened, bombs, flagged)
	}
	req.revealReply = RevealReply{
		Opened:  opened.Transfer(),
		Bombs:   bombs.Transfer(),
		Flagged: flagged.Transfer(),
	}
	return nil
}

func adoptForBoard(cfg state.Config, name string, buf bitvector.Buffer) (*bitvector.BitVector, error) {
	if buf.Size != cfg.Size() {
		return nil, errors.Wrapf(ErrInvalidRequest, "reveal: %s buffer has size %d, board has %d cells", name, buf.Size, cfg.Size())
	}
	v, err := bitvector.Adopt(buf)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "reveal: %s buffer: %v", name, err)
	}
	return v, nil
}
