package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	player    = nihongo.Session{Token: "tok", Username: "kenji"}
	anonymous = nihongo.Session{}
)

var fivePairs = []nihongo.KanaPair{
	{Romaji: "a", Kana: "あ"},
	{Romaji: "ka", Kana: "か"},
	{Romaji: "sa", Kana: "さ"},
	{Romaji: "ta", Kana: "た"},
	{Romaji: "na", Kana: "な"},
}

// fakeClock fires timers only when the test advances it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// Advance moves time forward and runs the timers that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	pending := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.at.After(c.now):
			t.stopped = true
			due = append(due, t)
		default:
			pending = append(pending, t)
		}
	}
	c.timers = pending
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeKana struct {
	mu      sync.Mutex
	pairs   [][]nihongo.KanaPair
	err     error
	block   chan struct{}
	entered chan struct{}
	counts  []int
}

func (f *fakeKana) RandomKana(ctx context.Context, _ nihongo.Session, _ nihongo.KanaType, count int) ([]nihongo.KanaPair, error) {
	f.mu.Lock()
	f.counts = append(f.counts, count)
	n := len(f.counts)
	f.mu.Unlock()

	if n == 1 && f.block != nil {
		if f.entered != nil {
			close(f.entered)
		}
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.pairs[min(n, len(f.pairs))-1], nil
}

type fakeVocab struct{ err error }

func (f fakeVocab) RandomVocabulary(_ context.Context, _ nihongo.Session, count int, _ []string) ([]nihongo.VocabularyItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	items := make([]nihongo.VocabularyItem, count)
	for i := range items {
		items[i] = nihongo.VocabularyItem{
			ID:      fmt.Sprintf("v%d", i),
			Reading: fmt.Sprintf("よみ%d", i),
			Meaning: fmt.Sprintf("meaning %d", i),
		}
	}
	return items, nil
}

// tagVocab records the tags each vocabulary request asked for.
type tagVocab struct {
	fakeVocab
	mu   sync.Mutex
	tags [][]string
}

func (f *tagVocab) RandomVocabulary(ctx context.Context, sess nihongo.Session, count int, tags []string) ([]nihongo.VocabularyItem, error) {
	f.mu.Lock()
	f.tags = append(f.tags, tags)
	f.mu.Unlock()
	return f.fakeVocab.RandomVocabulary(ctx, sess, count, tags)
}

func (f *tagVocab) requested() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.tags...)
}

type fakePreferences struct {
	tags []string
	err  error
}

func (f fakePreferences) Preferences(context.Context, nihongo.Session) ([]string, error) {
	return f.tags, f.err
}

type fakeQuiz struct {
	mu      sync.Mutex
	asked   int
	answers []string
}

func (f *fakeQuiz) RandomQuestion(context.Context, nihongo.Session, []string) (game.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked++
	return game.Question{
		VocabularyID: "v1",
		Prompt:       "ねこ",
		Mode:         game.ModeToEnglish,
		Type:         game.TypeText,
	}, nil
}

func (f *fakeQuiz) CheckAnswer(_ context.Context, _ nihongo.Session, _, answer string, _ game.QuizMode) (game.CheckResult, error) {
	f.mu.Lock()
	f.answers = append(f.answers, answer)
	f.mu.Unlock()
	return game.CheckResult{Correct: answer == "cat", CorrectAnswer: "cat", UserAnswer: answer}, nil
}

type fakeHints struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeHints) Hint(context.Context, nihongo.Session, string, game.QuizMode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "a small animal", nil
}

// fakeSpeech blocks on "slow" until its context ends.
type fakeSpeech struct{ started chan struct{} }

func (f fakeSpeech) Speech(ctx context.Context, _ nihongo.Session, text string) ([]byte, error) {
	if text == "slow" {
		close(f.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []byte(text), nil
}

type fakeSettings map[string]string

func (f fakeSettings) Settings(context.Context) (map[string]string, error) { return f, nil }

type fakeScores struct {
	mu     sync.Mutex
	scores []int
	err    error
}

func (f *fakeScores) UpdateScore(_ context.Context, _ nihongo.Session, _ nihongo.GameType, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.scores = append(f.scores, score)
	return nil
}

func (f *fakeScores) recorded() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.scores...)
}

type fakeJournal struct {
	mu          sync.Mutex
	rounds      []store.Round
	submissions []store.Submission
}

func (f *fakeJournal) RecordRound(_ context.Context, r store.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds = append(f.rounds, r)
	return nil
}

func (f *fakeJournal) RecordSubmission(_ context.Context, s store.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, s)
	return nil
}

func (f *fakeJournal) all() ([]store.Round, []store.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Round(nil), f.rounds...), append([]store.Submission(nil), f.submissions...)
}

type fixture struct {
	m       *Manager
	clock   *fakeClock
	kana    *fakeKana
	quiz    *fakeQuiz
	hints   *fakeHints
	scores  *fakeScores
	journal *fakeJournal
}

func newFixture(t *testing.T, edit ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		clock:   newFakeClock(),
		kana:    &fakeKana{pairs: [][]nihongo.KanaPair{fivePairs}},
		quiz:    &fakeQuiz{},
		hints:   &fakeHints{},
		scores:  &fakeScores{},
		journal: &fakeJournal{},
	}
	deps := Deps{
		Kana:       f.kana,
		Vocabulary: fakeVocab{},
		Quiz:       f.quiz,
		Hints:      f.hints,
		Scores:     f.scores,
		Journal:    f.journal,
		Clock:      f.clock,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewRand:    func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) },
	}
	for _, fn := range edit {
		fn(&deps)
	}
	f.m = NewManager(deps)
	t.Cleanup(f.m.Close)
	return f
}

func (f *fixture) create(t *testing.T, sess nihongo.Session, opts Options) Round {
	t.Helper()
	r, err := f.m.Create(sess, opts)
	if err != nil {
		t.Fatalf("Create(%s): %v", opts.Game, err)
	}
	settle(r)
	return r
}

// settle waits for the round's background work to finish.
func settle(r Round) {
	r.(interface{ settle() }).settle()
}

func apply(t *testing.T, r Round, a Action) Snapshot {
	t.Helper()
	s, err := r.Apply(context.Background(), a)
	if err != nil {
		t.Fatalf("Apply(%s): %v", a.Type, err)
	}
	return s
}

var errBackend = errors.New("backend unavailable")
