package play

import (
	"context"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

type LinesRound struct {
	base
	g    *game.Lines
	tags []string
}

func newLinesRound(id string, sess nihongo.Session, deps *Deps, tags []string) *LinesRound {
	r := &LinesRound{g: game.NewLines(), tags: tags}
	r.init(id, nihongo.GameLines, sess, deps, func() (any, game.Phase) {
		v := r.g.View()
		return v, v.Phase
	})
	return r
}

func (r *LinesRound) load() {
	r.gen++
	fetch(&r.base, func(ctx context.Context) ([]nihongo.VocabularyItem, error) {
		return r.deps.Vocabulary.RandomVocabulary(ctx, r.sess, game.LinesItems, r.vocabularyTags(ctx, r.tags))
	}, func(items []nihongo.VocabularyItem, err error) {
		if err != nil {
			r.deps.Logger.Warn("loading lines round", "round", r.id, "error", err)
			_ = r.g.LoadFailed(err)
			return
		}
		if err := r.g.Load(r.rng, items); err != nil {
			r.deps.Logger.Error("dealing lines round", "round", r.id, "error", err)
		}
	})
}

func (r *LinesRound) Apply(_ context.Context, a Action) (Snapshot, error) {
	return r.apply(func() error {
		switch a.Type {
		case ActionStart:
			return r.g.Start()
		case ActionRestart:
			if err := r.g.Restart(); err != nil {
				return err
			}
			r.load()
		case ActionSelectLeft:
			return r.g.SelectLeft(a.CardID)
		case ActionSelectRight:
			return r.g.SelectRight(a.CardID)
		case ActionCheck:
			out, err := r.g.Check()
			if err != nil {
				return err
			}
			r.handle(out)
		default:
			return ErrUnknownAction
		}
		return nil
	})
}
