package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/nihongowow/arcade/internal/nihongo"
)

const (
	DefaultSaladTimeLimit = 120
	DefaultSaladKana      = 20
)

type SaladCard struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
	romaji  string
}

type SaladView struct {
	Phase     Phase       `json:"phase"`
	Romaji    []SaladCard `json:"romaji"`
	Kana      []SaladCard `json:"kana"`
	Matched   int         `json:"matched"`
	Errors    int         `json:"errors"`
	Total     int         `json:"total"`
	TimeLimit int         `json:"timeLimit"`
	Remaining int         `json:"remaining"`
	Error     string      `json:"error,omitempty"`
}

// Salad is the timed kana matching game.
type Salad struct {
	m         machine
	rep       reporter
	romaji    []SaladCard
	kana      []SaladCard
	matched   int
	errors    int
	timeLimit int
	remaining int
	autoStart bool
	loadErr   string
}

var saladEdges = map[Phase][]Phase{
	PhaseLoading:  {PhaseReady, PhasePlaying, PhaseLoading},
	PhaseReady:    {PhasePlaying, PhaseLoading},
	PhasePlaying:  {PhaseFinished, PhaseTimeout, PhaseLoading},
	PhaseFinished: {PhaseLoading},
	PhaseTimeout:  {PhaseLoading},
}

func NewSalad() *Salad {
	return &Salad{
		m:         machine{phase: PhaseLoading, edges: saladEdges},
		rep:       reporter{game: nihongo.GameSalad},
		timeLimit: DefaultSaladTimeLimit,
	}
}

func (g *Salad) Phase() Phase { return g.m.phase }

// Load deals a round from pairs. Both columns are shuffled independently.
// A restarted round goes straight to playing.
func (g *Salad) Load(r *rand.Rand, pairs []nihongo.KanaPair, timeLimit int) error {
	if g.m.phase != PhaseLoading {
		return fmt.Errorf("%w: load in %s", ErrInvalidTransition, g.m.phase)
	}

	romaji := make([]SaladCard, len(pairs))
	kana := make([]SaladCard, len(pairs))
	for i, p := range pairs {
		romaji[i] = SaladCard{ID: fmt.Sprintf("romaji-%d", i), Text: p.Romaji, romaji: p.Romaji}
		kana[i] = SaladCard{ID: fmt.Sprintf("kana-%d", i), Text: p.Kana, romaji: p.Romaji}
	}
	g.romaji = Shuffle(r, romaji)
	g.kana = Shuffle(r, kana)

	if timeLimit <= 0 {
		timeLimit = DefaultSaladTimeLimit
	}
	g.timeLimit = timeLimit
	g.remaining = timeLimit
	g.matched = 0
	g.errors = 0
	g.loadErr = ""
	g.rep.reset()

	next := PhaseReady
	if g.autoStart && len(pairs) > 0 {
		next = PhasePlaying
	}
	g.autoStart = false
	return g.m.to(next)
}

// LoadFailed leaves the game ready with an empty round.
func (g *Salad) LoadFailed(err error) error {
	g.autoStart = false
	if err := g.Load(nil, nil, g.timeLimit); err != nil {
		return err
	}
	g.loadErr = err.Error()
	return nil
}

func (g *Salad) Start() error {
	if len(g.romaji) == 0 {
		return fmt.Errorf("%w: empty round", ErrInvalidTransition)
	}
	return g.m.to(PhasePlaying)
}

// Restart discards the round; the next Load starts play immediately.
func (g *Salad) Restart() error {
	if err := g.m.to(PhaseLoading); err != nil {
		return err
	}
	g.autoStart = true
	g.romaji, g.kana = nil, nil
	g.matched, g.errors = 0, 0
	return nil
}

// Tick advances the countdown by one second.
func (g *Salad) Tick() Outcome {
	if g.m.phase != PhasePlaying {
		return Outcome{}
	}
	g.remaining--
	if g.remaining > 0 {
		return Outcome{}
	}
	g.remaining = 0
	_ = g.m.to(PhaseTimeout)
	return Outcome{Final: g.rep.report(g.matched)}
}

// Drop binds a romaji card to a kana card.
func (g *Salad) Drop(romajiID, kanaID string) (Outcome, error) {
	if g.m.phase != PhasePlaying {
		return Outcome{}, ErrNotPlaying
	}
	ri := cardIndex(g.romaji, romajiID)
	ki := cardIndex(g.kana, kanaID)
	if ri < 0 || ki < 0 {
		return Outcome{}, ErrUnknownCard
	}
	if g.romaji[ri].Matched || g.kana[ki].Matched {
		return Outcome{}, nil
	}

	if g.romaji[ri].romaji != g.kana[ki].romaji {
		g.errors++
		return Outcome{}, nil
	}

	g.romaji[ri].Matched = true
	g.kana[ki].Matched = true
	g.matched++

	out := Outcome{Chime: true}
	if g.matched == len(g.romaji) {
		_ = g.m.to(PhaseFinished)
		out.Final = g.rep.report(g.matched)
	}
	return out, nil
}

func (g *Salad) Matched() int   { return g.matched }
func (g *Salad) Remaining() int { return g.remaining }

func (g *Salad) View() SaladView {
	return SaladView{
		Phase:     g.m.phase,
		Romaji:    append([]SaladCard(nil), g.romaji...),
		Kana:      append([]SaladCard(nil), g.kana...),
		Matched:   g.matched,
		Errors:    g.errors,
		Total:     len(g.romaji),
		TimeLimit: g.timeLimit,
		Remaining: g.remaining,
		Error:     g.loadErr,
	}
}

func cardIndex(cards []SaladCard, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}
