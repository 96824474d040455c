// Package board serves a checkers table the way a web page would render it:
// one image per cell named spaceXY, a status line, and a restart control.
// The human side moves up the board; the house side replies on its own.
package board

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/luc527/checkers_autoplay/core"
)

const (
	StatusYourTurn = "Make a move."
	StatusWait     = "Please wait."
	StatusWon      = "You won!"
	StatusLost     = "You lost."

	RestartControl = "Restart..."

	lightCell = "white.gif"
)

var (
	ErrNotYourTurn  = errors.New("board: not your turn")
	ErrGameOver     = errors.New("board: game is over")
	ErrIllegalMove  = errors.New("board: illegal move")
	ErrUnknownCell  = errors.New("board: unknown cell")
	ErrUnknownInput = errors.New("board: unknown control")
)

type Winner byte

const (
	NoWinner = Winner(iota)
	PlayerWon
	HouseWon
)

func (w Winner) String() string {
	switch w {
	case NoWinner:
		return "none"
	case PlayerWon:
		return "player"
	case HouseWon:
		return "house"
	default:
		return "invalid"
	}
}

func (w Winner) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// GameOver describes a finished game.
type GameOver struct {
	Id     uuid.UUID `json:"id"`
	Winner Winner    `json:"winner"`
	Moves  int       `json:"moves"`
}

// Table is a single game. It is not safe for concurrent use; the monitor
// owns it.
type Table struct {
	id        uuid.UUID
	cells     [core.BoardSize][core.BoardSize]core.Content
	selected  *core.Coord
	houseTurn bool
	winner    Winner
	moves     int
	tokens    core.Tokens
}

func NewTable() (*Table, error) {
	t := &Table{tokens: core.DefaultTokens}
	if err := t.Reset(); err != nil {
		return nil, err
	}
	return t, nil
}

func dark(c core.Coord) bool {
	return (c.X+c.Y)%2 == 1
}

// Reset puts twelve men on each side and starts a new game with a new id.
func (t *Table) Reset() error {
	id, err := uuid.NewRandom()
	if err != nil {
		return err
	}
	t.id = id
	t.selected = nil
	t.houseTurn = false
	t.winner = NoWinner
	t.moves = 0
	for y := 0; y < core.BoardSize; y++ {
		for x := 0; x < core.BoardSize; x++ {
			c := core.Coord{X: x, Y: y}
			switch {
			case !dark(c):
				t.cells[x][y] = core.Ignored
			case y < 3:
				t.cells[x][y] = core.PlayerPiece
			case y > 4:
				t.cells[x][y] = core.OpponentPiece
			default:
				t.cells[x][y] = core.EmptyPlayable
			}
		}
	}
	return nil
}

func (t *Table) Id() uuid.UUID {
	return t.id
}

func (t *Table) Winner() Winner {
	return t.winner
}

func (t *Table) HouseToMove() bool {
	return t.winner == NoWinner && t.houseTurn
}

func (t *Table) at(c core.Coord) core.Content {
	return t.cells[c.X][c.Y]
}

func (t *Table) put(c core.Coord, kind core.Content) {
	t.cells[c.X][c.Y] = kind
}

func (t *Table) Status() string {
	switch {
	case t.winner == PlayerWon:
		return StatusWon
	case t.winner == HouseWon:
		return StatusLost
	case t.houseTurn:
		return StatusWait
	default:
		return StatusYourTurn
	}
}

// Cells renders every cell, row by row.
func (t *Table) Cells() []core.RawCell {
	raw := make([]core.RawCell, 0, core.BoardSize*core.BoardSize)
	for y := 0; y < core.BoardSize; y++ {
		for x := 0; x < core.BoardSize; x++ {
			c := core.Coord{X: x, Y: y}
			src := lightCell
			switch t.at(c) {
			case core.PlayerPiece:
				src = t.tokens.Player
			case core.OpponentPiece:
				src = t.tokens.Opponent
			case core.EmptyPlayable:
				src = t.tokens.Empty
			}
			raw = append(raw, core.RawCell{Name: core.CellName(c), Content: src})
		}
	}
	return raw
}

func (t *Table) snapshot() *core.Snapshot {
	snap, err := core.Parse(t.Cells(), t.tokens)
	if err != nil {
		// Cells only renders well formed names.
		panic(err)
	}
	return snap
}

func opposite(own core.Content) core.Content {
	if own == core.PlayerPiece {
		return core.OpponentPiece
	}
	return core.PlayerPiece
}

// legal reports whether m is one of the two forward shapes for the side
// whose men are `own`, moving in direction dy.
func (t *Table) legal(m core.Move, own core.Content, dy int) bool {
	if !m.From.OnBoard() || !m.To.OnBoard() {
		return false
	}
	if t.at(m.From) != own || t.at(m.To) != core.EmptyPlayable {
		return false
	}
	dx := m.To.X - m.From.X
	switch {
	case m.To.Y-m.From.Y == dy && (dx == 1 || dx == -1):
		return !m.Capture
	case m.To.Y-m.From.Y == 2*dy && (dx == 2 || dx == -2):
		mid, _ := m.Jumped()
		return m.Capture && t.at(mid) == opposite(own)
	default:
		return false
	}
}

func (t *Table) apply(m core.Move, own core.Content) {
	t.put(m.From, core.EmptyPlayable)
	t.put(m.To, own)
	if mid, ok := m.Jumped(); ok {
		t.put(mid, core.EmptyPlayable)
	}
	t.moves++
}

func shape(from, to core.Coord) core.Move {
	dy := to.Y - from.Y
	return core.Move{From: from, To: to, Capture: dy == 2 || dy == -2}
}

// Click selects a piece of the player, or moves the selected piece to the
// clicked cell. A finished game ends with a non-nil GameOver.
func (t *Table) Click(c core.Coord) (*GameOver, error) {
	if !c.OnBoard() {
		return nil, fmt.Errorf("%w %v", ErrUnknownCell, c)
	}
	if t.winner != NoWinner {
		return nil, ErrGameOver
	}
	if t.houseTurn {
		return nil, ErrNotYourTurn
	}
	if t.at(c) == core.PlayerPiece {
		t.selected = &c
		return nil, nil
	}
	if t.selected == nil {
		return nil, fmt.Errorf("%w: nothing selected", ErrIllegalMove)
	}
	m := shape(*t.selected, c)
	t.selected = nil
	if !t.legal(m, core.PlayerPiece, 1) {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, m)
	}
	t.apply(m, core.PlayerPiece)
	t.houseTurn = true
	if _, ok := core.Search(t.snapshot().Rotate()); !ok {
		return t.finish(PlayerWon), nil
	}
	return nil, nil
}

// HouseMove plays the house's reply using the same greedy search the bot
// uses, on the board turned around.
func (t *Table) HouseMove() (core.Move, *GameOver, error) {
	if !t.HouseToMove() {
		return core.Move{}, nil, ErrNotYourTurn
	}
	rm, ok := core.Search(t.snapshot().Rotate())
	if !ok {
		return core.Move{}, t.finish(PlayerWon), nil
	}
	m := rm.Rotate()
	if !t.legal(m, core.OpponentPiece, -1) {
		return core.Move{}, nil, fmt.Errorf("%w: house chose %v", ErrIllegalMove, m)
	}
	t.apply(m, core.OpponentPiece)
	t.houseTurn = false
	if _, ok := core.Search(t.snapshot()); !ok {
		return m, t.finish(HouseWon), nil
	}
	return m, nil, nil
}

func (t *Table) finish(w Winner) *GameOver {
	t.winner = w
	t.selected = nil
	return &GameOver{Id: t.id, Winner: w, Moves: t.moves}
}
