package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

func TestUpsertProgress(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewProgressRepoWithConn(conn)
	log := &entity.ProgressLog{
		AssignmentID:     uuid.New(),
		PeriodIdentifier: "41",
		Status:           entity.StatusVerde,
		Value:            1.0,
	}
	query := `INSERT INTO progress_logs .+ ON CONFLICT \(assignment_id, period_identifier\)`
	args := []any{log.AssignmentID, log.PeriodIdentifier, log.Status, log.Value}
	t.Run("upserted", func(t *testing.T) {
		conn.ExpectExec(query).WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		assert.NoError(t, repo.Upsert(ctx, log))
	})
	t.Run("unknown assignment", func(t *testing.T) {
		conn.ExpectExec(query).WithArgs(args...).WillReturnError(&pgconn.PgError{
			Code: "23503",
		})
		assert.ErrorIs(t, repo.Upsert(ctx, log), errorvalues.ErrAssignmentNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		conn.ExpectExec(query).WithArgs(args...).WillReturnError(errors.New("db error"))
		assert.Error(t, repo.Upsert(ctx, log))
	})
}

func TestListProgressByAssignments(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewProgressRepoWithConn(conn)
	aid := uuid.New()
	loggedAt := time.Date(2025, time.October, 6, 12, 0, 0, 0, time.UTC)
	query := `SELECT assignment_id, period_identifier, status, value, logged_at`
	t.Run("listed", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"assignment_id", "period_identifier", "status", "value", "logged_at"}).
			AddRow(aid, "41", entity.StatusVerde, 1.0, loggedAt).
			AddRow(aid, "40", entity.StatusRoja, 0.33, loggedAt.AddDate(0, 0, -7))
		conn.ExpectQuery(query).WithArgs([]uuid.UUID{aid}).WillReturnRows(rows)
		logs, err := repo.ListByAssignments(ctx, []uuid.UUID{aid})
		assert.NoError(t, err)
		assert.Len(t, logs, 2)
		assert.Equal(t, "41", logs[0].PeriodIdentifier)
		assert.Equal(t, entity.StatusVerde, logs[0].Status)
	})
	t.Run("no assignment ids short-circuits", func(t *testing.T) {
		logs, err := repo.ListByAssignments(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, logs)
	})
	t.Run("db error", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs([]uuid.UUID{aid}).WillReturnError(errors.New("db error"))
		_, err := repo.ListByAssignments(ctx, []uuid.UUID{aid})
		assert.Error(t, err)
	})
}
