// Package spinning provides a spinner to show while the program waits on the worker, and
// the Ctrl+C handling of the interactive programs.
package spinning

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"k8s.io/klog/v2"
)

// DefaultDelay before the spinner is displayed: waits shorter than that show nothing.
const DefaultDelay = 500 * time.Millisecond

var (
	ThemeAscii = []rune(`|/-\`)
	ThemeMoon  = []rune("🌑🌒🌓🌔🌕🌖🌗🌘")
	ThemeClock = []rune("🕐🕑🕒🕓🕔🕕🕖🕗🕘🕙🕚🕛")

	// Theme defaults to ThemeClock, but it can be set to anything else.
	Theme = ThemeClock

	// Output where the spinner is drawn.
	Output io.Writer = os.Stdout

	// TickPeriod between spinner symbols.
	TickPeriod = 250 * time.Millisecond
)

// Spinning is a spinner running on its own goroutine, see New.
type Spinning struct {
	wg     sync.WaitGroup
	cancel func()
	shown  atomic.Bool
}

// SafeInterrupt will capture SigInt (Ctrl+C) and SigTerm and call the provided onInterrupt.
// If the program haven't exited after gracePeriod, it will call Reset to reset the terminal
// and exit.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Println()
		klog.Errorf("Got interrupted (signal %q), shutting down... (%s)", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}
		time.Sleep(gracePeriod)
		Reset()
		klog.Fatalf("Graceful shutting down %s period expired, exiting.", gracePeriod)
	}()
}

// Reset terminal: make cursor visible, restore default terminal colors.
func Reset() {
	fmt.Fprint(Output, "\033[?25h\033[39;49;0m\n")
}

// New starts a spinner that shows up only after delay, and runs until Spinning.Done is called
// or ctx is cancelled.
func New(ctx context.Context, delay time.Duration) *Spinning {
	s := &Spinning{}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}
		s.shown.Store(true)
		ticker := time.NewTicker(TickPeriod)
		defer ticker.Stop()
		fmt.Fprint(Output, "\033[?25l")       // Hide cursor.
		defer fmt.Fprint(Output, "\033[?25h") // Restore cursor.

		fmt.Fprint(Output, "  ")
		for idx := 0; ; idx = (idx + 1) % len(Theme) {
			fmt.Fprintf(Output, "\b\b%c", Theme[idx])
			select {
			case <-ctx.Done():
				fmt.Fprint(Output, "\b\b  \b\b")
				return
			case <-ticker.C:
			}
		}
	}()
	return s
}

// Done stops the spinner and waits for it to clear.
func (s *Spinning) Done() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}

// Shown returns whether the spinner was displayed at all.
func (s *Spinning) Shown() bool {
	return s.shown.Load()
}

// While runs fn with a spinner displayed if it takes longer than DefaultDelay.
func While(ctx context.Context, fn func() error) error {
	s := New(ctx, DefaultDelay)
	defer s.Done()
	return fn()
}
