// Package surface is the boundary between the bot and the rendered game it
// plays: reading cells and the status line, clicking cells and controls, and
// waiting for the rendering to reach some condition.
package surface

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/luc527/checkers_autoplay/core"
)

var (
	ErrWaitTimeout = errors.New("surface: wait timed out")
	ErrClosed      = errors.New("surface: closed")
)

// View is what the surface shows at one instant.
type View struct {
	Cells     []core.RawCell
	Status    string
	HasStatus bool
}

func (v View) Snapshot(tokens core.Tokens) (*core.Snapshot, error) {
	return core.Parse(v.Cells, tokens)
}

type Condition func(View) bool

type Surface interface {
	ReadCells(ctx context.Context) ([]core.RawCell, error)
	// ReadStatus reports false when the status indicator is not rendered yet.
	ReadStatus(ctx context.Context) (string, bool, error)
	ActivateCell(ctx context.Context, c core.Coord) error
	ActivateControl(ctx context.Context, name string) error
	// WaitUntil blocks until cond holds. A zero timeout waits for as long as
	// ctx allows.
	WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error
}

// latest holds the most recent view and wakes waiters whenever it changes.
type latest struct {
	mu      sync.Mutex
	view    View
	changed chan struct{}
	err     error
}

func newLatest() *latest {
	return &latest{changed: make(chan struct{})}
}

func (l *latest) get() (View, <-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view, l.changed, l.err
}

func (l *latest) set(v View) {
	v.Cells = slices.Clone(v.Cells)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return
	}
	l.view = v
	close(l.changed)
	l.changed = make(chan struct{})
}

// fail wakes every waiter for the last time; later reads return err.
func (l *latest) fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return
	}
	l.err = err
	close(l.changed)
}

func (l *latest) readCells() ([]core.RawCell, error) {
	v, _, err := l.get()
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.Cells), nil
}

func (l *latest) readStatus() (string, bool, error) {
	v, _, err := l.get()
	if err != nil {
		return "", false, err
	}
	return v.Status, v.HasStatus, nil
}

func (l *latest) waitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		v, changed, err := l.get()
		if err != nil {
			return err
		}
		if cond(v) {
			return nil
		}
		select {
		case <-changed:
		case <-deadline:
			return ErrWaitTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
