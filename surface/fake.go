package surface

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/luc527/checkers_autoplay/core"
)

type Activation struct {
	Cell    core.Coord
	Control string // empty for cell clicks
}

// Fake is an in-memory surface. OnActivate, when set, runs after every
// recorded activation and may change what the fake shows.
type Fake struct {
	*latest
	mu          sync.Mutex
	activations []Activation
	OnActivate  func(f *Fake, a Activation)
}

var _ Surface = &Fake{}

func NewFake(v View) *Fake {
	f := &Fake{latest: newLatest()}
	f.Show(v)
	return f
}

func (f *Fake) Show(v View) {
	f.set(v)
}

func (f *Fake) SetStatus(status string) {
	v, _, _ := f.get()
	v.Status, v.HasStatus = status, true
	f.set(v)
}

func (f *Fake) SetCells(cells []core.RawCell) {
	v, _, _ := f.get()
	v.Cells = cells
	f.set(v)
}

// Close makes every later call fail with ErrClosed.
func (f *Fake) Close() {
	f.fail(ErrClosed)
}

func (f *Fake) Activations() []Activation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.activations)
}

func (f *Fake) activate(a Activation) error {
	if _, _, err := f.get(); err != nil {
		return err
	}
	f.mu.Lock()
	f.activations = append(f.activations, a)
	hook := f.OnActivate
	f.mu.Unlock()
	if hook != nil {
		hook(f, a)
	}
	return nil
}

func (f *Fake) ReadCells(ctx context.Context) ([]core.RawCell, error) {
	return f.readCells()
}

func (f *Fake) ReadStatus(ctx context.Context) (string, bool, error) {
	return f.readStatus()
}

func (f *Fake) ActivateCell(ctx context.Context, c core.Coord) error {
	return f.activate(Activation{Cell: c})
}

func (f *Fake) ActivateControl(ctx context.Context, name string) error {
	return f.activate(Activation{Control: name})
}

func (f *Fake) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	return f.waitUntil(ctx, cond, timeout)
}
