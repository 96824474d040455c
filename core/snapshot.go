package core

import (
	"errors"
	"fmt"
	"path"
	"slices"
)

var ErrMalformedCell = errors.New("malformed cell identifier")

type Content byte

const (
	Ignored = Content(iota)
	PlayerPiece
	OpponentPiece
	EmptyPlayable
)

func (c Content) String() string {
	switch c {
	case Ignored:
		return "ignored"
	case PlayerPiece:
		return "player"
	case OpponentPiece:
		return "opponent"
	case EmptyPlayable:
		return "empty"
	default:
		return "invalid"
	}
}

// Tokens are the content identifiers the table renders for each recognized
// kind of cell. Anything else is ignored.
type Tokens struct {
	Player   string
	Opponent string
	Empty    string
}

var DefaultTokens = Tokens{
	Player:   "you1.gif",
	Opponent: "me1.gif",
	Empty:    "gray.gif",
}

// Classify compares the base name of a content identifier, so both
// "you1.gif" and "https://host/img/you1.gif" count as a player piece.
func (t Tokens) Classify(content string) Content {
	if content == "" {
		return Ignored
	}
	switch path.Base(content) {
	case t.Player:
		return PlayerPiece
	case t.Opponent:
		return OpponentPiece
	case t.Empty:
		return EmptyPlayable
	default:
		return Ignored
	}
}

// RawCell is one rendered element as read from the surface.
type RawCell struct {
	Name    string `json:"name"`
	Content string `json:"src"`
}

// Snapshot is an immutable reading of the board at one instant.
// The coordinate views are sorted ascending by Coord.Compare.
type Snapshot struct {
	cells    map[string]string
	contents map[Coord]Content
	player   []Coord
	opponent []Coord
	empty    []Coord
}

func FromRaw(cells []RawCell) (*Snapshot, error) {
	return Parse(cells, DefaultTokens)
}

func Parse(cells []RawCell, tokens Tokens) (*Snapshot, error) {
	s := &Snapshot{
		cells:    make(map[string]string, len(cells)),
		contents: make(map[Coord]Content),
	}
	for _, cell := range cells {
		if cell.Name == "" || cell.Content == "" {
			continue
		}
		s.cells[cell.Name] = cell.Content
	}

	owners := make(map[Coord]string)
	for name, content := range s.cells {
		kind := tokens.Classify(content)
		if kind == Ignored {
			continue
		}
		c, err := ParseCell(name)
		if err != nil {
			return nil, err
		}
		if other, ok := owners[c]; ok {
			return nil, fmt.Errorf("%w: %q and %q both name %v", ErrMalformedCell, other, name, c)
		}
		owners[c] = name
		s.contents[c] = kind
		switch kind {
		case PlayerPiece:
			s.player = append(s.player, c)
		case OpponentPiece:
			s.opponent = append(s.opponent, c)
		case EmptyPlayable:
			s.empty = append(s.empty, c)
		}
	}

	slices.SortFunc(s.player, Coord.Compare)
	slices.SortFunc(s.opponent, Coord.Compare)
	slices.SortFunc(s.empty, Coord.Compare)
	return s, nil
}

func (s *Snapshot) PlayerPieces() []Coord {
	return slices.Clone(s.player)
}

func (s *Snapshot) OpponentPieces() []Coord {
	return slices.Clone(s.opponent)
}

func (s *Snapshot) EmptyPlayable() []Coord {
	return slices.Clone(s.empty)
}

// At reports the classification of a cell; off-board and unknown cells are Ignored.
func (s *Snapshot) At(c Coord) Content {
	return s.contents[c]
}

func (s *Snapshot) Count(kind Content) int {
	switch kind {
	case PlayerPiece:
		return len(s.player)
	case OpponentPiece:
		return len(s.opponent)
	case EmptyPlayable:
		return len(s.empty)
	default:
		return 0
	}
}

// Content returns the raw content identifier recorded for a cell identifier.
func (s *Snapshot) Content(name string) (string, bool) {
	v, ok := s.cells[name]
	return v, ok
}

// Rotate returns the snapshot as the opponent sees it: every coordinate
// rotated half a turn and the two sides exchanged. Raw identifiers are
// not carried over.
func (s *Snapshot) Rotate() *Snapshot {
	r := &Snapshot{
		contents: make(map[Coord]Content, len(s.contents)),
	}
	for c, kind := range s.contents {
		rc := c.Rotate()
		switch kind {
		case PlayerPiece:
			kind = OpponentPiece
			r.opponent = append(r.opponent, rc)
		case OpponentPiece:
			kind = PlayerPiece
			r.player = append(r.player, rc)
		case EmptyPlayable:
			r.empty = append(r.empty, rc)
		}
		r.contents[rc] = kind
	}
	slices.SortFunc(r.player, Coord.Compare)
	slices.SortFunc(r.opponent, Coord.Compare)
	slices.SortFunc(r.empty, Coord.Compare)
	return r
}
