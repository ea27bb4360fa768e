package play

import (
	"context"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

type MemoryRound struct {
	base
	g    *game.Memory
	tags []string
}

func newMemoryRound(id string, sess nihongo.Session, deps *Deps, tags []string) *MemoryRound {
	r := &MemoryRound{g: game.NewMemory(), tags: tags}
	r.init(id, nihongo.GameMemory, sess, deps, func() (any, game.Phase) {
		v := r.g.View()
		return v, v.Phase
	})
	return r
}

func (r *MemoryRound) load() {
	r.gen++
	fetch(&r.base, func(ctx context.Context) ([]nihongo.VocabularyItem, error) {
		return r.deps.Vocabulary.RandomVocabulary(ctx, r.sess, game.MemoryPairs, r.vocabularyTags(ctx, r.tags))
	}, func(items []nihongo.VocabularyItem, err error) {
		if err != nil {
			r.deps.Logger.Warn("loading memory round", "round", r.id, "error", err)
			_ = r.g.LoadFailed(err)
			return
		}
		if err := r.g.Load(r.rng, items); err != nil {
			r.deps.Logger.Error("dealing memory round", "round", r.id, "error", err)
		}
	})
}

func (r *MemoryRound) Apply(_ context.Context, a Action) (Snapshot, error) {
	return r.apply(func() error {
		switch a.Type {
		case ActionStart:
			return r.g.Start()
		case ActionRestart:
			r.stopTimer()
			if err := r.g.Restart(); err != nil {
				return err
			}
			r.load()
		case ActionFlip:
			grade, err := r.g.Flip(a.CardID)
			if err != nil || grade == nil {
				return err
			}
			seq := grade.Seq
			r.schedule(grade.Delay, func() {
				r.handle(r.g.Resolve(seq))
			})
		default:
			return ErrUnknownAction
		}
		return nil
	})
}
