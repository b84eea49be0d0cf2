package spinning

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer is a bytes.Buffer safe to write from the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDelay(t *testing.T) {
	out := &syncBuffer{}
	oldOutput, oldTheme := Output, Theme
	Output, Theme = out, ThemeAscii
	t.Cleanup(func() { Output, Theme = oldOutput, oldTheme })

	// Done before the delay: nothing is drawn.
	s := New(context.Background(), time.Hour)
	s.Done()
	assert.False(t, s.Shown())
	assert.Empty(t, out.String())

	// No delay.
	s = New(context.Background(), 0)
	time.Sleep(10 * time.Millisecond)
	s.Done()
	assert.True(t, s.Shown())
	assert.Contains(t, out.String(), "|")
	s.Done() // Calling twice is fine.
}

func TestCancelledContext(t *testing.T) {
	out := &syncBuffer{}
	oldOutput := Output
	Output = out
	t.Cleanup(func() { Output = oldOutput })
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, time.Hour)
	cancel()
	s.Done()
	assert.False(t, s.Shown())
	assert.Empty(t, out.String())
}
