// Package game implements the practice-game engines. Engines are plain
// state machines: they never block, never start timers and never touch the
// network. The play package drives them.
package game

import (
	"errors"
	"fmt"

	"github.com/nihongowow/arcade/internal/nihongo"
)

type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseReady    Phase = "ready"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
	PhaseTimeout  Phase = "timeout"
	PhaseResult   Phase = "result"
	PhaseQuestion Phase = "question"
	PhaseError    Phase = "error"
)

var (
	ErrInvalidTransition = errors.New("game: invalid transition")
	ErrNotPlaying        = errors.New("game: round is not in play")
	ErrUnknownCard       = errors.New("game: unknown card")
	ErrBusy              = errors.New("game: pair is being graded")
	ErrIncomplete        = errors.New("game: round is not ready to be checked")
	ErrNoQuestion        = errors.New("game: no question is open")
)

// Final is the score a round reports when it ends. Engines hand it out at
// most once per round.
type Final struct {
	Game  nihongo.GameType `json:"game"`
	Score int              `json:"score"`
}

// Outcome is what an action produced besides the state change.
type Outcome struct {
	Chime bool
	Final *Final
}

// machine walks a fixed transition table.
type machine struct {
	phase Phase
	edges map[Phase][]Phase
}

func (m *machine) to(next Phase) error {
	for _, p := range m.edges[m.phase] {
		if p == next {
			m.phase = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.phase, next)
}

// reporter hands out a round's Final once.
type reporter struct {
	game nihongo.GameType
	done bool
}

func (r *reporter) report(score int) *Final {
	if r.done {
		return nil
	}
	r.done = true
	return &Final{Game: r.game, Score: score}
}

func (r *reporter) reset() { r.done = false }
