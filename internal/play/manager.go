package play

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nihongowow/arcade/internal/nihongo"
)

// Options select what a new round plays with.
type Options struct {
	Game     nihongo.GameType `json:"game"`
	KanaType nihongo.KanaType `json:"kanaType,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
}

// Manager owns the live rounds.
type Manager struct {
	deps *Deps

	mu     sync.RWMutex
	rounds map[string]Round
}

func NewManager(deps Deps) *Manager {
	deps.defaults()
	return &Manager{deps: &deps, rounds: make(map[string]Round)}
}

func (m *Manager) Broker() *Broker { return m.deps.Broker }

// Create starts a round and its initial load.
func (m *Manager) Create(sess nihongo.Session, opts Options) (Round, error) {
	id := uuid.NewString()

	var r Round
	switch opts.Game {
	case nihongo.GameSalad:
		typ := opts.KanaType
		if typ == "" {
			typ = nihongo.KanaHiragana
		}
		if !typ.Valid() {
			return nil, fmt.Errorf("kana type %q: %w", typ, ErrUnknownGame)
		}
		s := newSaladRound(id, sess, m.deps, typ)
		s.locked(s.load)
		r = s
	case nihongo.GameLines:
		l := newLinesRound(id, sess, m.deps, opts.Tags)
		l.locked(l.load)
		r = l
	case nihongo.GameMemory:
		mr := newMemoryRound(id, sess, m.deps, opts.Tags)
		mr.locked(mr.load)
		r = mr
	case nihongo.GameQuiz:
		q := newQuizRound(id, sess, m.deps, opts.Tags)
		q.locked(func() { _ = q.next() })
		r = q
	default:
		return nil, fmt.Errorf("%q: %w", opts.Game, ErrUnknownGame)
	}

	m.mu.Lock()
	m.rounds[id] = r
	m.mu.Unlock()

	m.deps.Logger.Info("round created", "round", id, "game", opts.Game, "owner", sess.Username)
	return r, nil
}

// Get returns the round if sess owns it.
func (m *Manager) Get(sess nihongo.Session, id string) (Round, error) {
	m.mu.RLock()
	r, ok := m.rounds[id]
	m.mu.RUnlock()
	if !ok || r.Owner() != sess.Username {
		return nil, ErrRoundNotFound
	}
	return r, nil
}

// Remove closes the round and forgets it.
func (m *Manager) Remove(sess nihongo.Session, id string) error {
	r, err := m.Get(sess, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.rounds, id)
	m.mu.Unlock()
	r.Close()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rounds)
}

// Sweep closes rounds idle for longer than maxIdle and reports how many.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.deps.Clock.Now().Add(-maxIdle)

	var idle []Round
	m.mu.Lock()
	for id, r := range m.rounds {
		if r.LastActive().Before(cutoff) {
			idle = append(idle, r)
			delete(m.rounds, id)
		}
	}
	m.mu.Unlock()

	for _, r := range idle {
		r.Close()
	}
	return len(idle)
}

// Run sweeps idle rounds every interval until ctx is done, then closes
// every remaining round.
func (m *Manager) Run(ctx context.Context, every, maxIdle time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Close()
			return nil
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.deps.Logger.Info("swept idle rounds", "count", n)
			}
		}
	}
}

func (m *Manager) Close() {
	m.mu.Lock()
	rounds := m.rounds
	m.rounds = make(map[string]Round)
	m.mu.Unlock()

	for _, r := range rounds {
		r.Close()
	}
}
