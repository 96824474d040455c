package board

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/luc527/checkers_autoplay/bot"
	"github.com/luc527/checkers_autoplay/core"
	"github.com/luc527/checkers_autoplay/surface"
)

var quiet = log.New(io.Discard, "", 0)

func tryMonitor(t *testing.T, opts Options) *Monitor {
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	m, err := NewMonitor(opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func tryReceive(t *testing.T, l Listener) surface.StateData {
	select {
	case s, ok := <-l:
		if !ok {
			t.Fatal("listener closed")
		}
		return s
	case <-time.After(time.Second):
		t.Fatal("no state received")
	}
	return surface.StateData{}
}

func TestMonitor(t *testing.T) {
	m := tryMonitor(t, Options{HouseDelay: -1})
	go m.Run()
	defer m.Stop()

	ctx := context.Background()

	l, err := m.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	first := tryReceive(t, l)
	if first.Message == nil || *first.Message != StatusYourTurn || len(first.Cells) != 64 {
		t.Fatalf("unexpected first state %+v", first)
	}

	if err := m.Click(ctx, "space12"); err != nil {
		t.Fatal(err)
	}
	tryReceive(t, l)
	if err := m.Click(ctx, "space03"); err != nil {
		t.Fatal(err)
	}
	if s := tryReceive(t, l); *s.Message != StatusWait {
		t.Fatalf("expected the house to think, got %q", *s.Message)
	}
	if s := tryReceive(t, l); *s.Message != StatusYourTurn {
		t.Fatalf("expected the house to have replied, got %q", *s.Message)
	}

	if err := m.Click(ctx, "space99"); !errors.Is(err, ErrUnknownCell) {
		t.Fatalf("expected unknown cell, got %v", err)
	}
	if err := m.Control(ctx, "Resign"); !errors.Is(err, ErrUnknownInput) {
		t.Fatalf("expected unknown control, got %v", err)
	}

	if err := m.Control(ctx, RestartControl); err != nil {
		t.Fatal(err)
	}
	if s := tryReceive(t, l); s.Id == first.Id {
		t.Fatal("restart should start a new game")
	}

	m.Unsubscribe(l)
	if _, ok := <-l; ok {
		t.Fatal("listener should be closed after unsubscribing")
	}
}

func TestMonitorStop(t *testing.T) {
	m := tryMonitor(t, Options{})
	go m.Run()

	l, err := m.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	tryReceive(t, l)
	m.Stop()
	if _, ok := <-l; ok {
		t.Fatal("listener should be closed when the monitor stops")
	}
	if err := m.Click(context.Background(), "space12"); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected stopped, got %v", err)
	}
	m.Stop()
}

func TestMonitorGameOver(t *testing.T) {
	overs := make(chan GameOver, 1)
	m := tryMonitor(t, Options{OnGameOver: func(g GameOver) { overs <- g }})
	clearTable(m.table)
	m.table.put(core.Coord{X: 1, Y: 2}, core.PlayerPiece)
	m.table.put(core.Coord{X: 2, Y: 3}, core.OpponentPiece)
	id := m.table.Id()

	go m.Run()
	defer m.Stop()

	ctx := context.Background()
	if err := m.Click(ctx, "space12"); err != nil {
		t.Fatal(err)
	}
	if err := m.Click(ctx, "space34"); err != nil {
		t.Fatal(err)
	}

	select {
	case g := <-overs:
		if g.Id != id || g.Winner != PlayerWon || g.Moves != 1 {
			t.Fatalf("unexpected game over %+v", g)
		}
	case <-time.After(time.Second):
		t.Fatal("game over hook not called")
	}

	s, err := m.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *s.Message != StatusWon {
		t.Fatalf("status %q", *s.Message)
	}
}

func TestBotAgainstTable(t *testing.T) {
	m := tryMonitor(t, Options{HouseDelay: -1})
	go m.Run()
	defer m.Stop()

	r := mux.NewRouter()
	NewServer(m).Routes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	before, err := m.State(ctx)
	if err != nil {
		t.Fatal(err)
	}

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, err := surface.Dial(ctx, url, quiet)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	p := &bot.Player{
		SettleDelay:    100 * time.Millisecond,
		TurnTimeout:    2 * time.Second,
		RestartTimeout: 2 * time.Second,
		Logger:         quiet,
	}
	res, err := p.Play(ctx, ws, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Turns != 3 || res.Outcome != bot.OutcomeBudgetExhausted {
		t.Fatalf("unexpected result %+v", res)
	}
	want := core.Move{From: core.Coord{X: 1, Y: 2}, To: core.Coord{X: 0, Y: 3}}
	if res.Moves[0] != want {
		t.Fatalf("first move should be %v, got %v", want, res.Moves[0])
	}

	after, err := m.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	snapBefore, _ := core.FromRaw(before.Cells)
	snapAfter, _ := core.FromRaw(after.Cells)
	if slices.Equal(snapBefore.PlayerPieces(), snapAfter.PlayerPieces()) {
		t.Fatal("the table did not take any move")
	}

	if err := p.Restart(ctx, ws); err != nil {
		t.Fatal(err)
	}
	// The position after three quiet moves may already count 12/12, so the
	// handshake can return before the table processed the restart.
	for i := 0; ; i++ {
		restarted, err := m.State(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if restarted.Id != before.Id {
			break
		}
		if i == 100 {
			t.Fatal("restart should start a new game")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStateEndpoint(t *testing.T) {
	m := tryMonitor(t, Options{})
	go m.Run()
	defer m.Stop()

	r := mux.NewRouter()
	NewServer(m).Routes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `"name":"space01","src":"you1.gif"`) {
		t.Fatalf("unexpected body %s", body)
	}
}
