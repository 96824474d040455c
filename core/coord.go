package core

import (
	"cmp"
	"fmt"
)

const BoardSize = 8

// Coord is a board cell, column first.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) OnBoard() bool {
	return c.X >= 0 && c.X < BoardSize && c.Y >= 0 && c.Y < BoardSize
}

func (c Coord) Add(dx, dy int) Coord {
	return Coord{c.X + dx, c.Y + dy}
}

// Rotate returns the same cell as seen from the other side of the table.
func (c Coord) Rotate() Coord {
	return Coord{BoardSize - 1 - c.X, BoardSize - 1 - c.Y}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Compare orders coordinates by column, then row.
func (c Coord) Compare(o Coord) int {
	if r := cmp.Compare(c.X, o.X); r != 0 {
		return r
	}
	return cmp.Compare(c.Y, o.Y)
}

const cellPrefix = "space"

// CellName is the identifier the table uses for a cell.
func CellName(c Coord) string {
	return fmt.Sprintf("%s%d%d", cellPrefix, c.X, c.Y)
}

// ParseCell reads the coordinate from the last two characters of an identifier.
func ParseCell(name string) (Coord, error) {
	n := len(name)
	if n < 2 {
		return Coord{}, fmt.Errorf("%w: %q", ErrMalformedCell, name)
	}
	x, y := name[n-2], name[n-1]
	if x < '0' || x > '7' || y < '0' || y > '7' {
		return Coord{}, fmt.Errorf("%w: %q", ErrMalformedCell, name)
	}
	return Coord{int(x - '0'), int(y - '0')}, nil
}
