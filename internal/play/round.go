package play

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/store"
)

var (
	ErrRoundNotFound = errors.New("round not found")
	ErrRoundClosed   = errors.New("round closed")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownGame   = errors.New("unknown game")
)

type ActionType string

const (
	ActionStart       ActionType = "start"
	ActionRestart     ActionType = "restart"
	ActionDrop        ActionType = "drop"
	ActionSelectLeft  ActionType = "select_left"
	ActionSelectRight ActionType = "select_right"
	ActionCheck       ActionType = "check"
	ActionFlip        ActionType = "flip"
	ActionAnswer      ActionType = "answer"
	ActionGap         ActionType = "gap"
	ActionSubmit      ActionType = "submit"
	ActionEnter       ActionType = "enter"
	ActionNext        ActionType = "next"
	ActionHint        ActionType = "hint"
)

// Action is one player input. Only the fields the action type needs are read.
type Action struct {
	Type     ActionType `json:"type"`
	RomajiID string     `json:"romajiId,omitempty"`
	KanaID   string     `json:"kanaId,omitempty"`
	CardID   string     `json:"cardId,omitempty"`
	Answer   string     `json:"answer,omitempty"`
	Gap      int        `json:"gap,omitempty"`
	Value    string     `json:"value,omitempty"`
}

// Snapshot is the client-visible state of a round. Chime and Final describe
// what the change that produced the snapshot did.
type Snapshot struct {
	ID         string           `json:"id"`
	Game       nihongo.GameType `json:"game"`
	Generation uint64           `json:"generation"`
	State      any              `json:"state"`
	Chime      bool             `json:"chime,omitempty"`
	Final      *game.Final      `json:"final,omitempty"`
}

type Round interface {
	ID() string
	Game() nihongo.GameType
	Owner() string
	Snapshot() Snapshot
	Apply(ctx context.Context, a Action) (Snapshot, error)
	LastActive() time.Time
	Close()
}

// base carries what every round shares: identity, the lock, the generation
// counter, the single pending timer and the score reporter.
type base struct {
	id      string
	game    nihongo.GameType
	sess    nihongo.Session
	deps    *Deps
	rng     *rand.Rand
	created time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	gen         uint64
	closed      bool
	active      time.Time
	timer       Timer
	chime       bool
	final       *game.Final
	submissions int
	score       int
	view        func() (any, game.Phase)
}

func (b *base) init(id string, g nihongo.GameType, sess nihongo.Session, deps *Deps, view func() (any, game.Phase)) {
	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.id = id
	b.game = g
	b.sess = sess
	b.deps = deps
	b.rng = deps.NewRand()
	b.created = deps.Clock.Now()
	b.active = b.created
	b.view = view
}

func (b *base) ID() string             { return b.id }
func (b *base) Game() nihongo.GameType { return b.game }
func (b *base) Owner() string          { return b.sess.Username }

func (b *base) LastActive() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *base) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *base) snapshotLocked() Snapshot {
	state, _ := b.view()
	return Snapshot{
		ID:         b.id,
		Game:       b.game,
		Generation: b.gen,
		State:      state,
		Chime:      b.chime,
		Final:      b.final,
	}
}

// apply runs fn under the round lock and publishes the result.
func (b *base) apply(fn func() error) (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return Snapshot{}, ErrRoundClosed
	}
	b.active = b.deps.Clock.Now()
	if err := fn(); err != nil {
		return b.snapshotLocked(), err
	}
	return b.publishLocked(), nil
}

func (b *base) publishLocked() Snapshot {
	s := b.snapshotLocked()
	b.deps.Broker.Publish(s)
	b.chime = false
	b.final = nil
	return s
}

// handle records what an engine call produced.
func (b *base) handle(out game.Outcome) {
	if out.Chime {
		b.chime = true
	}
	if out.Final != nil {
		b.final = out.Final
		b.report(*out.Final)
	}
}

// vocabularyTags returns tags, or the player's saved tag preferences when
// none were chosen. Anonymous players, and failed lookups, draw from all
// vocabulary.
func (b *base) vocabularyTags(ctx context.Context, tags []string) []string {
	if len(tags) > 0 || !b.sess.Authenticated() || b.deps.Preferences == nil {
		return tags
	}
	saved, err := b.deps.Preferences.Preferences(ctx, b.sess)
	if err != nil {
		b.deps.Logger.Warn("loading tag preferences", "round", b.id, "error", err)
		return nil
	}
	return saved
}

// fetch runs load off the lock and applies its result under the lock,
// unless the round moved to another generation or closed meanwhile.
func fetch[T any](b *base, load func(ctx context.Context) (T, error), apply func(T, error)) {
	gen := b.gen
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		v, err := load(b.ctx)

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed || gen != b.gen {
			b.deps.Logger.Debug("dropping stale response", "round", b.id, "generation", gen, "current", b.gen)
			return
		}
		apply(v, err)
		b.publishLocked()
	}()
}

// schedule arms the round's timer. The callback is dropped if the round
// moved to another generation before it fired.
func (b *base) schedule(d time.Duration, fn func()) {
	b.stopTimer()
	gen := b.gen
	b.timer = b.deps.Clock.AfterFunc(d, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed || gen != b.gen {
			return
		}
		b.timer = nil
		fn()
		b.publishLocked()
	})
}

func (b *base) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// report submits a final score in the background. Anonymous sessions are
// journaled but never sent to the score recorder. Failures are logged only.
func (b *base) report(f game.Final) {
	b.submissions++
	seq := b.submissions
	b.score = f.Score
	rec := b.recordLocked()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(b.ctx), b.deps.SubmitTimeout)
		defer cancel()

		sub := store.Submission{RoundID: b.id, Seq: seq, Game: f.Game, Score: f.Score, Status: store.StatusSkipped}
		if b.sess.Authenticated() && b.deps.Scores != nil {
			sub.Status = store.StatusSubmitted
			if err := b.deps.Scores.UpdateScore(ctx, b.sess, f.Game, f.Score); err != nil {
				sub.Status = store.StatusFailed
				sub.Error = err.Error()
				b.deps.Logger.Warn("score submission failed",
					"round", b.id, "game", f.Game, "score", f.Score, "error", err)
			}
		}

		if b.deps.Journal == nil {
			return
		}
		if err := b.deps.Journal.RecordRound(ctx, rec); err != nil {
			b.deps.Logger.Error("journaling round", "round", b.id, "error", err)
		}
		if err := b.deps.Journal.RecordSubmission(ctx, sub); err != nil {
			b.deps.Logger.Error("journaling submission", "round", b.id, "error", err)
		}
	}()
}

// recordLocked is the journal entry for the round as it stands.
func (b *base) recordLocked() store.Round {
	_, phase := b.view()
	return store.Round{
		ID:        b.id,
		Owner:     b.sess.Username,
		Game:      b.game,
		Phase:     string(phase),
		Score:     b.score,
		CreatedAt: b.created.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

// Close stops the round, waits for its background work and journals the
// phase it was left in, so rounds that never reported a score are listed too.
func (b *base) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.gen++
	b.stopTimer()
	b.cancel()
	rec := b.recordLocked()
	b.mu.Unlock()

	b.wg.Wait()

	if b.deps.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.deps.SubmitTimeout)
	defer cancel()
	if err := b.deps.Journal.RecordRound(ctx, rec); err != nil {
		b.deps.Logger.Error("journaling round", "round", b.id, "error", err)
	}
}

// locked runs fn under the round lock without publishing.
func (b *base) locked(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

func (b *base) settle() { b.wg.Wait() }
