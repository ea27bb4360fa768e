// Package store is the local journal of played rounds and of the score
// submissions they produced. Rounds are kept as JSONB documents.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nihongowow/arcade/internal/nihongo"
)

var ErrNotFound = errors.New("not found")

type Round struct {
	ID        string           `json:"id"`
	Owner     string           `json:"owner"`
	Game      nihongo.GameType `json:"game"`
	Phase     string           `json:"phase"`
	Score     int              `json:"score"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

type SubmissionStatus string

const (
	StatusSubmitted SubmissionStatus = "submitted"
	StatusSkipped   SubmissionStatus = "skipped"
	StatusFailed    SubmissionStatus = "failed"
)

type Submission struct {
	RoundID   string           `json:"roundId"`
	Seq       int              `json:"seq"`
	Game      nihongo.GameType `json:"game"`
	Score     int              `json:"score"`
	Status    SubmissionStatus `json:"status"`
	Error     string           `json:"error,omitempty"`
	CreatedAt string           `json:"createdAt"`
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordRound inserts or replaces the round document. Callers keep
// CreatedAt stable across updates.
func (s *Store) RecordRound(ctx context.Context, r Round) error {
	now := nowUTC()
	if r.CreatedAt == "" {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rounds (id, owner, game, updated_at, data) VALUES (?, ?, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, data = excluded.data`,
		r.ID, r.Owner, string(r.Game), r.UpdatedAt, string(data),
	)
	if err != nil {
		return fmt.Errorf("recording round %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) Round(ctx context.Context, id string) (Round, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT json(data) FROM rounds WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Round{}, ErrNotFound
	}
	if err != nil {
		return Round{}, err
	}
	var r Round
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return Round{}, err
	}
	return r, nil
}

// RecentRounds lists an owner's rounds, newest first.
func (s *Store) RecentRounds(ctx context.Context, owner string, limit int) ([]Round, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM rounds WHERE owner = ? ORDER BY updated_at DESC, id LIMIT ?`,
		owner, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := []Round{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Round
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// RecordSubmission stores the outcome of a score submission. A second
// record for the same round and sequence number is ignored.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) error {
	if sub.CreatedAt == "" {
		sub.CreatedAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO score_submissions (round_id, seq, game, score, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(round_id, seq) DO NOTHING`,
		sub.RoundID, sub.Seq, string(sub.Game), sub.Score, string(sub.Status), sub.Error, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording submission %s/%d: %w", sub.RoundID, sub.Seq, err)
	}
	return nil
}

func (s *Store) Submissions(ctx context.Context, roundID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round_id, seq, game, score, status, error, created_at
		 FROM score_submissions WHERE round_id = ? ORDER BY seq`,
		roundID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var game, status string
		if err := rows.Scan(&sub.RoundID, &sub.Seq, &game, &sub.Score, &status, &sub.Error, &sub.CreatedAt); err != nil {
			return nil, err
		}
		sub.Game = nihongo.GameType(game)
		sub.Status = SubmissionStatus(status)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Prune deletes rounds not updated since before, with their submissions.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	cutoff := before.UTC().Format(timeFormat)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM score_submissions WHERE round_id IN (SELECT id FROM rounds WHERE updated_at < ?)`, cutoff,
	); err != nil {
		return 0, fmt.Errorf("pruning submissions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning rounds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

const timeFormat = "2006-01-02T15:04:05.000Z"

func nowUTC() string {
	return time.Now().UTC().Format(timeFormat)
}
