// Package bot plays checkers on a surface it can only see and click: wait
// for the turn, read the board, pick a move, click it, repeat.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/luc527/checkers_autoplay/core"
	"github.com/luc527/checkers_autoplay/surface"
)

const (
	DefaultTurnPrefix     = "Make a move"
	DefaultRestartControl = "Restart..."
	DefaultSettleDelay    = 500 * time.Millisecond

	InitialPieces = 12
)

// Player holds the knobs of the bot. The zero value is usable: empty
// strings and zero tokens fall back to the defaults above. Zero timeouts
// mean the waits block until ctx is done. A negative SettleDelay disables
// the pause after each move.
type Player struct {
	TurnPrefix     string
	RestartControl string
	SettleDelay    time.Duration
	TurnTimeout    time.Duration
	RestartTimeout time.Duration
	Tokens         core.Tokens
	Logger         *log.Logger
}

type Outcome byte

const (
	OutcomeBudgetExhausted = Outcome(iota)
	OutcomeNoMoves
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBudgetExhausted:
		return "budget exhausted"
	case OutcomeNoMoves:
		return "no moves available"
	default:
		return "invalid"
	}
}

type Result struct {
	Turns   int
	Moves   []core.Move
	Outcome Outcome
}

func (p *Player) logger() *log.Logger {
	if p.Logger == nil {
		return log.Default()
	}
	return p.Logger
}

func (p *Player) tokens() core.Tokens {
	if p.Tokens == (core.Tokens{}) {
		return core.DefaultTokens
	}
	return p.Tokens
}

func (p *Player) turnPrefix() string {
	if p.TurnPrefix == "" {
		return DefaultTurnPrefix
	}
	return p.TurnPrefix
}

func (p *Player) restartControl() string {
	if p.RestartControl == "" {
		return DefaultRestartControl
	}
	return p.RestartControl
}

func (p *Player) settleDelay() time.Duration {
	if p.SettleDelay == 0 {
		return DefaultSettleDelay
	}
	return p.SettleDelay
}

// WaitForTurn returns once the status indicator exists and its trimmed text
// starts with the turn prefix.
func (p *Player) WaitForTurn(ctx context.Context, s surface.Surface) error {
	present := func(v surface.View) bool {
		return v.HasStatus
	}
	if err := s.WaitUntil(ctx, present, p.TurnTimeout); err != nil {
		return fmt.Errorf("bot: waiting for the status indicator: %w", err)
	}
	prefix := p.turnPrefix()
	ourTurn := func(v surface.View) bool {
		return v.HasStatus && strings.HasPrefix(strings.TrimSpace(v.Status), prefix)
	}
	if err := s.WaitUntil(ctx, ourTurn, p.TurnTimeout); err != nil {
		return fmt.Errorf("bot: waiting for our turn: %w", err)
	}
	return nil
}

// PerformMove selects the piece, then the destination. Whether the surface
// accepted the move only shows in the next snapshot.
func PerformMove(ctx context.Context, s surface.Surface, m core.Move) error {
	if err := s.ActivateCell(ctx, m.From); err != nil {
		return fmt.Errorf("bot: selecting %v: %w", m.From, err)
	}
	if err := s.ActivateCell(ctx, m.To); err != nil {
		return fmt.Errorf("bot: moving to %v: %w", m.To, err)
	}
	return nil
}

func (p *Player) snapshot(ctx context.Context, s surface.Surface) (*core.Snapshot, error) {
	cells, err := s.ReadCells(ctx)
	if err != nil {
		return nil, fmt.Errorf("bot: reading cells: %w", err)
	}
	snap, err := core.Parse(cells, p.tokens())
	if err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}
	return snap, nil
}

// Play takes up to maxTurns turns. Running out of moves ends the game
// early and is reported in the result, not as an error.
func (p *Player) Play(ctx context.Context, s surface.Surface, maxTurns int) (Result, error) {
	var res Result
	for res.Turns < maxTurns {
		if err := p.WaitForTurn(ctx, s); err != nil {
			return res, err
		}
		snap, err := p.snapshot(ctx, s)
		if err != nil {
			return res, err
		}
		m, ok := core.Search(snap)
		if !ok {
			p.logger().Println("bot: no moves available, ending game")
			res.Outcome = OutcomeNoMoves
			return res, nil
		}
		res.Turns++
		p.logger().Printf("bot: turn %d: %v", res.Turns, m)
		if err := PerformMove(ctx, s, m); err != nil {
			return res, err
		}
		res.Moves = append(res.Moves, m)
		if err := settle(ctx, p.settleDelay()); err != nil {
			return res, err
		}
	}
	res.Outcome = OutcomeBudgetExhausted
	return res, nil
}

// Restart activates the restart control and waits for a full starting
// position on both sides.
func (p *Player) Restart(ctx context.Context, s surface.Surface) error {
	if err := s.ActivateControl(ctx, p.restartControl()); err != nil {
		return fmt.Errorf("bot: restart: %w", err)
	}
	tokens := p.tokens()
	initial := func(v surface.View) bool {
		snap, err := v.Snapshot(tokens)
		if err != nil {
			return false
		}
		return snap.Count(core.PlayerPiece) == InitialPieces && snap.Count(core.OpponentPiece) == InitialPieces
	}
	if err := s.WaitUntil(ctx, initial, p.RestartTimeout); err != nil {
		return fmt.Errorf("bot: waiting for the restarted board: %w", err)
	}
	p.logger().Println("bot: game restarted")
	return nil
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
