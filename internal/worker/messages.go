package worker

import (
	"github.com/dmitryrazinkov/minesweeper-app/internal/bitvector"
)

// GenerateRequest asks the worker for a new bomb placement.
type GenerateRequest struct {
	Width, Height, Bombs int
}

// GenerateReply holds the bombs placement (ownership moves to the receiver) and the cell
// index reserved to make the first click safe.
type GenerateReply struct {
	Bombs    bitvector.Buffer
	SafeCell int
}

// RevealRequest asks the worker to flood fill from cell (X, Y).
//
// The three buffers are moved into the request: the sender must not touch the bitvectors
// they came from until it adopts the ones in the RevealReply.
type RevealRequest struct {
	X, Y          int
	Width, Height int

	Opened, Bombs, Flagged bitvector.Buffer
}

// RevealReply returns the ownership of the three buffers.
//
// If the request failed, these are the request buffers, unchanged.
type RevealReply struct {
	Opened, Bombs, Flagged bitvector.Buffer
}

// request is what travels through the dispatcher channel. Exactly one of generate and reveal
// is set, and done is closed once the reply (or err) is filled.
type request struct {
	generate *GenerateRequest
	reveal   *RevealRequest

	generateReply GenerateReply
	revealReply   RevealReply
	err           error

	done chan struct{}
}

func newRequest() *request {
	return &request{done: make(chan struct{})}
}

// returnBuffers makes sure the reveal reply carries the original buffers, used on failures.
func (req *request) returnBuffers() {
	if req.reveal != nil {
		req.revealReply = RevealReply{
			Opened:  req.reveal.Opened,
			Bombs:   req.reveal.Bombs,
			Flagged: req.reveal.Flagged,
		}
	}
}
