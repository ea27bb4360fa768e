package play

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

// ErrSuperseded is returned to a speech request replaced by a newer one.
var ErrSuperseded = errors.New("speech superseded by a newer request")

type QuizRound struct {
	base
	g       *game.Quiz
	tags    []string
	speaker speaker
}

func newQuizRound(id string, sess nihongo.Session, deps *Deps, tags []string) *QuizRound {
	r := &QuizRound{g: game.NewQuiz(), tags: tags}
	r.init(id, nihongo.GameQuiz, sess, deps, func() (any, game.Phase) {
		v := r.g.View()
		return v, v.Phase
	})
	return r
}

// next opens a new generation and loads a question.
func (r *QuizRound) next() error {
	if err := r.g.Begin(); err != nil {
		return err
	}
	r.gen++
	fetch(&r.base, func(ctx context.Context) (game.Question, error) {
		return r.deps.Quiz.RandomQuestion(ctx, r.sess, r.tags)
	}, func(q game.Question, err error) {
		if err != nil {
			r.deps.Logger.Warn("loading question", "round", r.id, "error", err)
			_ = r.g.Failed(err)
			return
		}
		if err := r.g.Loaded(q); err != nil {
			r.deps.Logger.Error("opening question", "round", r.id, "error", err)
		}
	})
	return nil
}

func (r *QuizRound) submit() error {
	answer, err := r.g.BeginCheck()
	if err != nil {
		return err
	}
	q := *r.g.Question()
	fetch(&r.base, func(ctx context.Context) (game.CheckResult, error) {
		return r.deps.Quiz.CheckAnswer(ctx, r.sess, q.VocabularyID, answer, q.Mode)
	}, func(res game.CheckResult, err error) {
		if err != nil {
			r.deps.Logger.Warn("checking answer", "round", r.id, "error", err)
			_ = r.g.Failed(err)
			return
		}
		out, err := r.g.Graded(res)
		if err != nil {
			r.deps.Logger.Error("grading answer", "round", r.id, "error", err)
			return
		}
		r.handle(out)
	})
	return nil
}

func (r *QuizRound) hint() {
	if r.deps.Hints == nil || !r.g.BeginHint() {
		return
	}
	q := *r.g.Question()
	fetch(&r.base, func(ctx context.Context) (string, error) {
		return r.deps.Hints.Hint(ctx, r.sess, q.VocabularyID, q.Mode)
	}, func(text string, err error) {
		if err != nil {
			r.deps.Logger.Warn("fetching hint", "round", r.id, "error", err)
		}
		r.g.HintLoaded(text, err)
	})
}

func (r *QuizRound) Apply(_ context.Context, a Action) (Snapshot, error) {
	return r.apply(func() error {
		switch a.Type {
		case ActionNext, ActionRestart:
			return r.next()
		case ActionAnswer:
			return r.g.SetAnswer(a.Answer)
		case ActionGap:
			_, err := r.g.FillGap(a.Gap, a.Value)
			return err
		case ActionSubmit:
			return r.submit()
		case ActionEnter:
			switch r.g.Enter() {
			case game.EnterSubmit:
				return r.submit()
			case game.EnterNext:
				return r.next()
			}
		case ActionHint:
			r.hint()
		default:
			return ErrUnknownAction
		}
		return nil
	})
}

// Speak fetches audio for text. Starting a new request cancels the one in
// flight, which then returns ErrSuperseded.
func (r *QuizRound) Speak(ctx context.Context, text string) ([]byte, error) {
	if r.deps.Speech == nil {
		return nil, fmt.Errorf("speech: %w", ErrUnknownAction)
	}
	return r.speaker.speak(ctx, func(ctx context.Context) ([]byte, error) {
		return r.deps.Speech.Speech(ctx, r.sess, text)
	})
}

// speaker lets only the newest request deliver audio.
type speaker struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func (s *speaker) speak(ctx context.Context, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	audio, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return nil, ErrSuperseded
	}
	s.cancel = nil
	return audio, err
}
