package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/pkg/cleanup"
	"github.com/foresvi/tracker/pkg/entity"
)

type ProgressRepository struct {
	conn PgConnection
}

func NewProgressRepo(cfg DBConfig) *ProgressRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for progressRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for progressRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing progress pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &ProgressRepository{
		conn: pool,
	}
}

func NewProgressRepoWithConn(conn PgConnection) *ProgressRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for progressRepo: " + err.Error())
	}
	return &ProgressRepository{
		conn: conn,
	}
}

// Upsert relies on the unique constraint on (assignment_id,
// period_identifier): concurrent writes to the same key serialize to
// last-write-wins.
func (pr *ProgressRepository) Upsert(ctx context.Context, log *entity.ProgressLog) error {
	_, err := pr.conn.Exec(ctx,
		`INSERT INTO progress_logs (assignment_id, period_identifier, status, value, logged_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (assignment_id, period_identifier)
		 DO UPDATE SET status = EXCLUDED.status, value = EXCLUDED.value, logged_at = NOW();`,
		log.AssignmentID, log.PeriodIdentifier, log.Status, log.Value,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrAssignmentNotFound
			}
		}
		return errors.New("upserting progress log error: " + err.Error())
	}
	return nil
}

func (pr *ProgressRepository) ListByAssignments(ctx context.Context, assignmentIDs []uuid.UUID) ([]entity.ProgressLog, error) {
	logs := make([]entity.ProgressLog, 0)
	if len(assignmentIDs) == 0 {
		return logs, nil
	}
	rows, err := pr.conn.Query(ctx,
		`SELECT assignment_id, period_identifier, status, value, logged_at
		 FROM progress_logs WHERE assignment_id = ANY($1)
		 ORDER BY logged_at DESC;`,
		assignmentIDs,
	)
	if err != nil {
		return nil, errors.New("listing progress logs error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.ProgressLog
		err = rows.Scan(&l.AssignmentID, &l.PeriodIdentifier, &l.Status, &l.Value, &l.LoggedAt)
		if err != nil {
			return nil, errors.New("scanning progress log row error: " + err.Error())
		}
		logs = append(logs, l)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return logs, nil
}
