// Package play hosts live game rounds. Each round owns one engine from the
// game package and serializes everything that touches it: player actions,
// network responses and timers. Loads are tagged with a generation number
// so a response that arrives after a restart is dropped.
package play

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/store"
)

type KanaSource interface {
	RandomKana(ctx context.Context, sess nihongo.Session, typ nihongo.KanaType, count int) ([]nihongo.KanaPair, error)
}

type VocabularySource interface {
	RandomVocabulary(ctx context.Context, sess nihongo.Session, count int, tags []string) ([]nihongo.VocabularyItem, error)
}

type QuizSource interface {
	RandomQuestion(ctx context.Context, sess nihongo.Session, tags []string) (game.Question, error)
	CheckAnswer(ctx context.Context, sess nihongo.Session, vocabID, answer string, mode game.QuizMode) (game.CheckResult, error)
}

type Hinter interface {
	Hint(ctx context.Context, sess nihongo.Session, vocabID string, mode game.QuizMode) (string, error)
}

type SpeechSource interface {
	Speech(ctx context.Context, sess nihongo.Session, text string) ([]byte, error)
}

type PreferencesSource interface {
	Preferences(ctx context.Context, sess nihongo.Session) ([]string, error)
}

type SettingsSource interface {
	Settings(ctx context.Context) (map[string]string, error)
}

type ScoreRecorder interface {
	UpdateScore(ctx context.Context, sess nihongo.Session, g nihongo.GameType, score int) error
}

// Journal keeps a local record of rounds and score submissions.
type Journal interface {
	RecordRound(ctx context.Context, r store.Round) error
	RecordSubmission(ctx context.Context, s store.Submission) error
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Deps are the collaborators shared by every round.
type Deps struct {
	Kana        KanaSource
	Vocabulary  VocabularySource
	Quiz        QuizSource
	Hints       Hinter
	Speech      SpeechSource
	Settings    SettingsSource
	// Preferences supplies saved tags for vocabulary rounds created without any.
	Preferences PreferencesSource
	Scores      ScoreRecorder
	Journal     Journal
	Broker      *Broker
	Clock       Clock
	Logger      *slog.Logger

	// NewRand returns the random source for one round. Rounds use it only
	// while holding their lock.
	NewRand func() *rand.Rand

	SaladTimeLimit int
	SaladKana      int

	// SubmitTimeout bounds one score submission.
	SubmitTimeout time.Duration
}

func (d *Deps) defaults() {
	if d.Clock == nil {
		d.Clock = realClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.NewRand == nil {
		d.NewRand = func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) }
	}
	if d.Broker == nil {
		d.Broker = NewBroker()
	}
	if d.SaladTimeLimit <= 0 {
		d.SaladTimeLimit = game.DefaultSaladTimeLimit
	}
	if d.SaladKana <= 0 {
		d.SaladKana = game.DefaultSaladKana
	}
	if d.SubmitTimeout <= 0 {
		d.SubmitTimeout = 10 * time.Second
	}
}
