package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihongowow/arcade/internal/nihongo"
	"github.com/nihongowow/arcade/internal/store"
)

func TestRecordSubmissionDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO score_submissions").
		WithArgs("r1", 1, "quiz", 3, "submitted", "", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	s := store.New(db)
	err = s.RecordSubmission(context.Background(), store.Submission{
		RoundID: "r1", Seq: 1, Game: nihongo.GameQuiz, Score: 3, Status: store.StatusSubmitted,
	})
	assert.ErrorContains(t, err, "recording submission r1/1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentRoundsScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT json\\(data\\) FROM rounds WHERE owner").
		WithArgs("aiko", 5).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow("{not json"))

	_, err = store.New(db).RecentRounds(context.Background(), "aiko", 5)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM score_submissions").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM rounds").WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	_, err = store.New(db).Prune(context.Background(), time.Now())
	assert.ErrorContains(t, err, "pruning rounds")
	assert.NoError(t, mock.ExpectationsWereMet())
}
