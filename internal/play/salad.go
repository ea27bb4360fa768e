package play

import (
	"context"
	"strconv"
	"time"

	"github.com/nihongowow/arcade/internal/game"
	"github.com/nihongowow/arcade/internal/nihongo"
)

// Settings keys read when a Salad round loads.
const (
	settingSaladTimeLimit = "salad_time_limit"
	settingSaladKana      = "salad_kana_per_round"
)

type SaladRound struct {
	base
	g        *game.Salad
	kanaType nihongo.KanaType
}

type saladDeal struct {
	pairs     []nihongo.KanaPair
	timeLimit int
}

func newSaladRound(id string, sess nihongo.Session, deps *Deps, typ nihongo.KanaType) *SaladRound {
	r := &SaladRound{g: game.NewSalad(), kanaType: typ}
	r.init(id, nihongo.GameSalad, sess, deps, func() (any, game.Phase) {
		v := r.g.View()
		return v, v.Phase
	})
	return r
}

// load starts a new generation and deals a fresh round.
func (r *SaladRound) load() {
	r.gen++
	fetch(&r.base, r.deal, func(d saladDeal, err error) {
		if err != nil {
			r.deps.Logger.Warn("loading salad round", "round", r.id, "error", err)
			_ = r.g.LoadFailed(err)
			return
		}
		if err := r.g.Load(r.rng, d.pairs, d.timeLimit); err != nil {
			r.deps.Logger.Error("dealing salad round", "round", r.id, "error", err)
			return
		}
		if r.g.Phase() == game.PhasePlaying {
			r.tick()
		}
	})
}

func (r *SaladRound) deal(ctx context.Context) (saladDeal, error) {
	limit, count := r.deps.SaladTimeLimit, r.deps.SaladKana
	if r.deps.Settings != nil {
		settings, err := r.deps.Settings.Settings(ctx)
		if err != nil {
			r.deps.Logger.Debug("settings unavailable, using defaults", "error", err)
		} else {
			limit = atoiOr(settings[settingSaladTimeLimit], limit)
			count = atoiOr(settings[settingSaladKana], count)
		}
	}
	pairs, err := r.deps.Kana.RandomKana(ctx, r.sess, r.kanaType, count)
	return saladDeal{pairs: pairs, timeLimit: limit}, err
}

// tick arms the one-second countdown.
func (r *SaladRound) tick() {
	r.schedule(time.Second, func() {
		r.handle(r.g.Tick())
		if r.g.Phase() == game.PhasePlaying {
			r.tick()
		}
	})
}

func (r *SaladRound) Apply(_ context.Context, a Action) (Snapshot, error) {
	return r.apply(func() error {
		switch a.Type {
		case ActionStart:
			if err := r.g.Start(); err != nil {
				return err
			}
			r.tick()
		case ActionRestart:
			r.stopTimer()
			if err := r.g.Restart(); err != nil {
				return err
			}
			r.load()
		case ActionDrop:
			out, err := r.g.Drop(a.RomajiID, a.KanaID)
			if err != nil {
				return err
			}
			r.handle(out)
			if r.g.Phase() != game.PhasePlaying {
				r.stopTimer()
			}
		default:
			return ErrUnknownAction
		}
		return nil
	})
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
