package core

import "fmt"

type Move struct {
	From    Coord `json:"from"`
	To      Coord `json:"to"`
	Capture bool  `json:"capture"`
}

func (m Move) String() string {
	if m.Capture {
		return fmt.Sprintf("%v x %v", m.From, m.To)
	}
	return fmt.Sprintf("%v - %v", m.From, m.To)
}

// Jumped is the cell a capture passes over.
func (m Move) Jumped() (Coord, bool) {
	if !m.Capture {
		return Coord{}, false
	}
	return Coord{(m.From.X + m.To.X) / 2, (m.From.Y + m.To.Y) / 2}, true
}

// Rotate returns the move as seen from the other side of the table.
func (m Move) Rotate() Move {
	return Move{m.From.Rotate(), m.To.Rotate(), m.Capture}
}

// Pieces always advance towards higher rows; column steps are tried
// left before right.
var (
	captureSteps = [...]int{-2, 2}
	simpleSteps  = [...]int{-1, 1}
)

// FindCapture returns the first single jump over an opponent piece into an
// empty cell, scanning pieces in ascending order. Chained jumps are not
// considered.
func FindCapture(s *Snapshot) (Move, bool) {
	for _, from := range s.player {
		for _, dx := range captureSteps {
			to := from.Add(dx, 2)
			if !to.OnBoard() {
				continue
			}
			mid := from.Add(dx/2, 1)
			if s.At(mid) == OpponentPiece && s.At(to) == EmptyPlayable {
				return Move{from, to, true}, true
			}
		}
	}
	return Move{}, false
}

func FindSimple(s *Snapshot) (Move, bool) {
	for _, from := range s.player {
		for _, dx := range simpleSteps {
			to := from.Add(dx, 1)
			if !to.OnBoard() {
				continue
			}
			if s.At(to) == EmptyPlayable {
				return Move{from, to, false}, true
			}
		}
	}
	return Move{}, false
}

// Search prefers any capture over any simple move.
func Search(s *Snapshot) (Move, bool) {
	if m, ok := FindCapture(s); ok {
		return m, true
	}
	return FindSimple(s)
}
