package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/nihongowow/arcade/internal/nihongo"
)

const (
	MemoryPairs = 15

	// How long a graded pair stays face up before it resolves.
	MatchDelay    = 500 * time.Millisecond
	MismatchDelay = 1000 * time.Millisecond
)

type CardKind string

const (
	KindJapanese CardKind = "japanese"
	KindMeaning  CardKind = "meaning"
)

type MemoryCard struct {
	ID      string   `json:"id"`
	Kind    CardKind `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Flipped bool     `json:"flipped"`
	Matched bool     `json:"matched"`
	vocabID string
}

// Grade is a pair waiting to be resolved. The caller must call Resolve
// with Seq once Delay has passed.
type Grade struct {
	Seq   uint64
	Match bool
	Delay time.Duration
}

type MemoryView struct {
	Phase   Phase        `json:"phase"`
	Cards   []MemoryCard `json:"cards"`
	Pairs   int          `json:"pairs"`
	Total   int          `json:"total"`
	Moves   int          `json:"moves"`
	Grading bool         `json:"grading"`
	Error   string       `json:"error,omitempty"`
}

// Memory is the concentration game. At most one pair is graded at a time.
type Memory struct {
	m       machine
	rep     reporter
	cards   []MemoryCard
	faceUp  []int
	pairs   int
	total   int
	moves   int
	grading bool
	match   bool
	seq     uint64
	loadErr string
}

var memoryEdges = map[Phase][]Phase{
	PhaseLoading:  {PhaseReady, PhaseLoading},
	PhaseReady:    {PhasePlaying, PhaseLoading},
	PhasePlaying:  {PhaseFinished, PhaseLoading},
	PhaseFinished: {PhaseLoading},
}

func NewMemory() *Memory {
	return &Memory{
		m:   machine{phase: PhaseLoading, edges: memoryEdges},
		rep: reporter{game: nihongo.GameMemory},
	}
}

func (g *Memory) Phase() Phase { return g.m.phase }

// Load creates a japanese and a meaning card per item and shuffles them
// together.
func (g *Memory) Load(r *rand.Rand, items []nihongo.VocabularyItem) error {
	if g.m.phase != PhaseLoading {
		return fmt.Errorf("%w: load in %s", ErrInvalidTransition, g.m.phase)
	}

	cards := make([]MemoryCard, 0, 2*len(items))
	for i, v := range items {
		cards = append(cards,
			MemoryCard{ID: fmt.Sprintf("jp-%d", i), Kind: KindJapanese, Text: v.JapaneseText(), vocabID: v.ID},
			MemoryCard{ID: fmt.Sprintf("meaning-%d", i), Kind: KindMeaning, Text: v.Meaning, vocabID: v.ID},
		)
	}
	g.cards = Shuffle(r, cards)
	g.total = len(items)
	g.faceUp = nil
	g.pairs, g.moves = 0, 0
	g.grading = false
	g.loadErr = ""
	g.rep.reset()
	return g.m.to(PhaseReady)
}

func (g *Memory) LoadFailed(err error) error {
	if err := g.Load(nil, nil); err != nil {
		return err
	}
	g.loadErr = err.Error()
	return nil
}

func (g *Memory) Start() error {
	if len(g.cards) == 0 {
		return fmt.Errorf("%w: empty round", ErrInvalidTransition)
	}
	return g.m.to(PhasePlaying)
}

// Restart drops the round. Any pending Grade becomes stale.
func (g *Memory) Restart() error {
	if err := g.m.to(PhaseLoading); err != nil {
		return err
	}
	g.cards, g.faceUp = nil, nil
	g.grading = false
	g.seq++
	return nil
}

// Flip turns a card face up. Flipping the second card of a pair starts
// grading and returns the pending Grade; nothing else can be flipped until
// it is resolved. Flipping a card that is already face up or matched does
// nothing.
func (g *Memory) Flip(id string) (*Grade, error) {
	if g.m.phase != PhasePlaying {
		return nil, ErrNotPlaying
	}
	if g.grading || len(g.faceUp) >= 2 {
		return nil, ErrBusy
	}
	i := g.index(id)
	if i < 0 {
		return nil, ErrUnknownCard
	}
	if g.cards[i].Flipped || g.cards[i].Matched {
		return nil, nil
	}

	g.cards[i].Flipped = true
	g.faceUp = append(g.faceUp, i)
	if len(g.faceUp) < 2 {
		return nil, nil
	}

	g.grading = true
	g.moves++
	g.seq++
	a, b := g.cards[g.faceUp[0]], g.cards[g.faceUp[1]]
	g.match = a.vocabID == b.vocabID && a.Kind != b.Kind

	delay := MismatchDelay
	if g.match {
		delay = MatchDelay
	}
	return &Grade{Seq: g.seq, Match: g.match, Delay: delay}, nil
}

// Resolve settles the pending pair identified by seq. Unknown or stale
// sequence numbers are ignored, so a duplicated timer cannot grade twice.
func (g *Memory) Resolve(seq uint64) Outcome {
	if !g.grading || seq != g.seq || g.m.phase != PhasePlaying {
		return Outcome{}
	}

	for _, i := range g.faceUp {
		g.cards[i].Flipped = false
		if g.match {
			g.cards[i].Matched = true
		}
	}
	g.faceUp = nil
	g.grading = false

	if !g.match {
		return Outcome{}
	}
	g.pairs++
	out := Outcome{Chime: true}
	if g.pairs == g.total {
		_ = g.m.to(PhaseFinished)
		out.Final = g.rep.report(g.pairs)
	}
	return out
}

func (g *Memory) Pairs() int    { return g.pairs }
func (g *Memory) Moves() int    { return g.moves }
func (g *Memory) Grading() bool { return g.grading }

// View hides the text of face-down cards.
func (g *Memory) View() MemoryView {
	cards := make([]MemoryCard, len(g.cards))
	for i, c := range g.cards {
		if !c.Flipped && !c.Matched {
			c.Text = ""
		}
		cards[i] = c
	}
	return MemoryView{
		Phase:   g.m.phase,
		Cards:   cards,
		Pairs:   g.pairs,
		Total:   g.total,
		Moves:   g.moves,
		Grading: g.grading,
		Error:   g.loadErr,
	}
}

func (g *Memory) index(id string) int {
	for i := range g.cards {
		if g.cards[i].ID == id {
			return i
		}
	}
	return -1
}
