package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/luc527/checkers_autoplay/core"
	"github.com/luc527/checkers_autoplay/surface"
)

const DefaultHouseDelay = 300 * time.Millisecond

var ErrStopped = errors.New("board: monitor stopped")

type Options struct {
	// How long the house thinks before replying. Negative means no delay.
	HouseDelay time.Duration
	Logger     *log.Logger
	// Called on its own goroutine whenever a game ends.
	OnGameOver func(GameOver)
}

// Listener receives the whole table state after every change. The monitor
// closes it when the listener falls behind or the monitor stops.
type Listener chan surface.StateData

type input struct {
	control bool
	name    string
}

// Monitor owns a Table and serializes everything that happens to it.
type Monitor struct {
	opts        Options
	table       *Table
	addListener chan Listener
	delListener chan Listener
	inputs      chan *request[input, struct{}]
	states      chan *request[struct{}, surface.StateData]
	stopSignal  chan struct{}
}

func NewMonitor(opts Options) (*Monitor, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.HouseDelay == 0 {
		opts.HouseDelay = DefaultHouseDelay
	}
	if opts.HouseDelay < 0 {
		opts.HouseDelay = 0
	}
	t, err := NewTable()
	if err != nil {
		return nil, err
	}
	return &Monitor{
		opts:        opts,
		table:       t,
		addListener: make(chan Listener),
		delListener: make(chan Listener),
		inputs:      make(chan *request[input, struct{}]),
		states:      make(chan *request[struct{}, surface.StateData]),
		stopSignal:  make(chan struct{}),
	}, nil
}

func (m *Monitor) state() surface.StateData {
	status := m.table.Status()
	return surface.StateData{
		Id:      m.table.Id(),
		Cells:   m.table.Cells(),
		Message: &status,
	}
}

func (m *Monitor) gameOver(over *GameOver) {
	if over == nil {
		return
	}
	m.opts.Logger.Printf("board: game %v over after %d moves, winner %v", over.Id, over.Moves, over.Winner)
	if m.opts.OnGameOver != nil {
		go m.opts.OnGameOver(*over)
	}
}

func (m *Monitor) handle(in input) error {
	if in.control {
		if in.name != RestartControl {
			return fmt.Errorf("%w %q", ErrUnknownInput, in.name)
		}
		if err := m.table.Reset(); err != nil {
			return err
		}
		m.opts.Logger.Printf("board: restarted, game %v", m.table.Id())
		return nil
	}
	c, err := core.ParseCell(in.name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownCell, err)
	}
	over, err := m.table.Click(c)
	if err != nil {
		return err
	}
	m.gameOver(over)
	return nil
}

func (m *Monitor) Run() {
	listeners := make(map[Listener]bool)

	var house *time.Timer
	var houseC <-chan time.Time
	scheduleHouse := func() {
		if house != nil {
			house.Stop()
		}
		house = time.NewTimer(m.opts.HouseDelay)
		houseC = house.C
	}

	broadcast := func() {
		s := m.state()
		for l := range listeners {
			select {
			case l <- s:
			default:
				close(l)
				delete(listeners, l)
			}
		}
	}

	for {
		select {
		case l := <-m.addListener:
			listeners[l] = true
			l <- m.state()
		case l := <-m.delListener:
			if listeners[l] {
				close(l)
				delete(listeners, l)
			}
		case req := <-m.states:
			req.respond(m.state())
		case req := <-m.inputs:
			if err := m.handle(req.data); err != nil {
				req.error(err)
				continue
			}
			req.respond(struct{}{})
			if m.table.HouseToMove() {
				scheduleHouse()
			}
			broadcast()
		case <-houseC:
			houseC = nil
			if !m.table.HouseToMove() {
				continue
			}
			mv, over, err := m.table.HouseMove()
			if err != nil {
				m.opts.Logger.Printf("board: house move failed: %v", err)
				continue
			}
			m.opts.Logger.Printf("board: house plays %v", mv)
			m.gameOver(over)
			broadcast()
		case <-m.stopSignal:
			if house != nil {
				house.Stop()
			}
			for l := range listeners {
				close(l)
			}
			return
		}
	}
}

func (m *Monitor) Stop() {
	select {
	case <-m.stopSignal:
	default:
		close(m.stopSignal)
	}
}

// Subscribe returns a listener that first receives the current state.
func (m *Monitor) Subscribe() (Listener, error) {
	l := make(Listener, 16)
	select {
	case m.addListener <- l:
		return l, nil
	case <-m.stopSignal:
		return nil, ErrStopped
	}
}

func (m *Monitor) Unsubscribe(l Listener) {
	select {
	case m.delListener <- l:
	case <-m.stopSignal:
	}
}

func (m *Monitor) send(ctx context.Context, in input) error {
	req := newRequest[input, struct{}](in)
	select {
	case m.inputs <- req:
	case <-m.stopSignal:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	_, err := req.wait(ctx)
	return err
}

func (m *Monitor) Click(ctx context.Context, name string) error {
	return m.send(ctx, input{name: name})
}

func (m *Monitor) Control(ctx context.Context, name string) error {
	return m.send(ctx, input{control: true, name: name})
}

func (m *Monitor) State(ctx context.Context) (surface.StateData, error) {
	req := newRequest[struct{}, surface.StateData](struct{}{})
	select {
	case m.states <- req:
	case <-m.stopSignal:
		return surface.StateData{}, ErrStopped
	case <-ctx.Done():
		return surface.StateData{}, ctx.Err()
	}
	return req.wait(ctx)
}
