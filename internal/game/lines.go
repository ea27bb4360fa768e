package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// LinesItems is how many vocabulary items a Lines round draws.
const LinesItems = 10

type LinesCard struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	vocabID string
}

type Connection struct {
	LeftID  string `json:"leftId"`
	RightID string `json:"rightId"`
	Correct *bool  `json:"correct,omitempty"`
}

// Color is how the line between the pair is drawn.
func (c Connection) Color() string {
	switch {
	case c.Correct == nil:
		return "neutral"
	case *c.Correct:
		return "green"
	default:
		return "red"
	}
}

type LinesView struct {
	Phase        Phase            `json:"phase"`
	Left         []LinesCard      `json:"left"`
	Right        []LinesCard      `json:"right"`
	Connections  []ConnectionView `json:"connections"`
	Selected     string           `json:"selected,omitempty"`
	JapaneseLeft bool             `json:"japaneseLeft"`
	CanCheck     bool             `json:"canCheck"`
	Correct      int              `json:"correct"`
	Error        string           `json:"error,omitempty"`
}

type ConnectionView struct {
	Connection
	Color string `json:"color"`
}

// Lines is the word-association matching game.
type Lines struct {
	m            machine
	rep          reporter
	left         []LinesCard
	right        []LinesCard
	conns        []Connection
	selected     string
	japaneseLeft bool
	correct      int
	loadErr      string
}

var linesEdges = map[Phase][]Phase{
	PhaseLoading: {PhaseReady, PhaseLoading},
	PhaseReady:   {PhasePlaying, PhaseLoading},
	PhasePlaying: {PhaseResult, PhaseLoading},
	PhaseResult:  {PhaseLoading},
}

func NewLines() *Lines {
	return &Lines{
		m:   machine{phase: PhaseLoading, edges: linesEdges},
		rep: reporter{game: nihongo.GameLines},
	}
}

func (g *Lines) Phase() Phase { return g.m.phase }

// Load builds the columns: left in source order, right shuffled. Which side
// shows Japanese is a coin flip.
func (g *Lines) Load(r *rand.Rand, items []nihongo.VocabularyItem) error {
	if g.m.phase != PhaseLoading {
		return fmt.Errorf("%w: load in %s", ErrInvalidTransition, g.m.phase)
	}

	g.japaneseLeft = intN(r, 2) == 0
	left := make([]LinesCard, len(items))
	right := make([]LinesCard, len(items))
	for i, v := range items {
		jp, en := v.Reading, v.Meaning
		if !g.japaneseLeft {
			jp, en = en, jp
		}
		left[i] = LinesCard{ID: fmt.Sprintf("left-%d", i), Text: jp, vocabID: v.ID}
		right[i] = LinesCard{ID: fmt.Sprintf("right-%d", i), Text: en, vocabID: v.ID}
	}
	g.left = left
	g.right = Shuffle(r, right)
	g.conns = nil
	g.selected = ""
	g.correct = 0
	g.loadErr = ""
	g.rep.reset()
	return g.m.to(PhaseReady)
}

func (g *Lines) LoadFailed(err error) error {
	if err := g.Load(nil, nil); err != nil {
		return err
	}
	g.loadErr = err.Error()
	return nil
}

func (g *Lines) Start() error {
	if len(g.left) == 0 {
		return fmt.Errorf("%w: empty round", ErrInvalidTransition)
	}
	return g.m.to(PhasePlaying)
}

func (g *Lines) Restart() error {
	if err := g.m.to(PhaseLoading); err != nil {
		return err
	}
	g.left, g.right, g.conns = nil, nil, nil
	g.selected = ""
	return nil
}

// SelectLeft removes the card's connection if it has one, otherwise toggles
// the selection.
func (g *Lines) SelectLeft(id string) error {
	if g.m.phase != PhasePlaying {
		return ErrNotPlaying
	}
	if linesIndex(g.left, id) < 0 {
		return ErrUnknownCard
	}
	if i := g.connFrom(id); i >= 0 {
		g.conns = append(g.conns[:i], g.conns[i+1:]...)
		g.selected = ""
		return nil
	}
	if g.selected == id {
		g.selected = ""
	} else {
		g.selected = id
	}
	return nil
}

// SelectRight connects the selected left card to id, replacing whatever
// either end was connected to. Without a selection it does nothing.
func (g *Lines) SelectRight(id string) error {
	if g.m.phase != PhasePlaying {
		return ErrNotPlaying
	}
	if linesIndex(g.right, id) < 0 {
		return ErrUnknownCard
	}
	if g.selected == "" {
		return nil
	}

	kept := g.conns[:0]
	for _, c := range g.conns {
		if c.LeftID != g.selected && c.RightID != id {
			kept = append(kept, c)
		}
	}
	g.conns = append(kept, Connection{LeftID: g.selected, RightID: id})
	g.selected = ""
	return nil
}

// CanCheck reports whether every left card has a connection.
func (g *Lines) CanCheck() bool {
	return g.m.phase == PhasePlaying && len(g.left) > 0 && len(g.conns) == len(g.left)
}

// Check grades every connection and ends the round. A round with no correct
// connections reports no score.
func (g *Lines) Check() (Outcome, error) {
	if g.m.phase != PhasePlaying {
		return Outcome{}, ErrNotPlaying
	}
	if !g.CanCheck() {
		return Outcome{}, ErrIncomplete
	}

	g.correct = 0
	for i := range g.conns {
		l := g.left[linesIndex(g.left, g.conns[i].LeftID)]
		r := g.right[linesIndex(g.right, g.conns[i].RightID)]
		ok := l.vocabID == r.vocabID
		g.conns[i].Correct = &ok
		if ok {
			g.correct++
		}
	}
	if err := g.m.to(PhaseResult); err != nil {
		return Outcome{}, err
	}

	var out Outcome
	if g.correct > 0 {
		out.Final = g.rep.report(g.correct)
		out.Chime = true
	}
	return out, nil
}

func (g *Lines) Connections() []Connection {
	return append([]Connection(nil), g.conns...)
}

func (g *Lines) View() LinesView {
	conns := make([]ConnectionView, len(g.conns))
	for i, c := range g.conns {
		conns[i] = ConnectionView{Connection: c, Color: c.Color()}
	}
	return LinesView{
		Phase:        g.m.phase,
		Left:         append([]LinesCard(nil), g.left...),
		Right:        append([]LinesCard(nil), g.right...),
		Connections:  conns,
		Selected:     g.selected,
		JapaneseLeft: g.japaneseLeft,
		CanCheck:     g.CanCheck(),
		Correct:      g.correct,
		Error:        g.loadErr,
	}
}

func (g *Lines) connFrom(leftID string) int {
	for i, c := range g.conns {
		if c.LeftID == leftID {
			return i
		}
	}
	return -1
}

func linesIndex(cards []LinesCard, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}
