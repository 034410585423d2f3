package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/pkg/cleanup"
	"github.com/foresvi/tracker/pkg/entity"
)

type HabitsRepository struct {
	conn PgConnection
}

func NewHabitsRepo(cfg DBConfig) *HabitsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for habitsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for habitsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing habits pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &HabitsRepository{
		conn: pool,
	}
}

func NewHabitsRepoWithConn(conn PgConnection) *HabitsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for habitsRepo: " + err.Error())
	}
	return &HabitsRepository{
		conn: conn,
	}
}

const habitColumns = `id, company_id, topic, name, cue, craving, response, reward, external_link, is_global, created_by, deleted_at`

func scanHabit(row pgx.Row) (*entity.Habit, error) {
	var h entity.Habit
	err := row.Scan(&h.ID, &h.CompanyID, &h.Topic, &h.Name, &h.Cue, &h.Craving,
		&h.Response, &h.Reward, &h.ExternalLink, &h.IsGlobal, &h.CreatedBy, &h.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (hr *HabitsRepository) Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error) {
	var id uuid.UUID
	row := hr.conn.QueryRow(ctx,
		`INSERT INTO habits (company_id, topic, name, cue, craving, response, reward, external_link, is_global, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id;`,
		habit.CompanyID, habit.Topic, habit.Name, habit.Cue, habit.Craving,
		habit.Response, habit.Reward, habit.ExternalLink, habit.IsGlobal, habit.CreatedBy,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation
			case "23505":
				return uuid.UUID{}, errorvalues.ErrHabitExists
			}
		}
		return uuid.UUID{}, errors.New("creating habit db error: " + err.Error())
	}
	return id, nil
}

func (hr *HabitsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	row := hr.conn.QueryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1;`, id)
	habit, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, errors.New("getting habit by id error: " + err.Error())
	}
	return habit, nil
}

func (hr *HabitsRepository) GetByNameAndCompany(ctx context.Context, name, companyID string) (*entity.Habit, error) {
	row := hr.conn.QueryRow(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE name = $1 AND company_id = $2 AND deleted_at IS NULL;`,
		name, companyID,
	)
	habit, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, errors.New("getting habit by name error: " + err.Error())
	}
	return habit, nil
}

func (hr *HabitsRepository) ListGlobal(ctx context.Context, companyID string, includeArchived bool) ([]*entity.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE company_id = $1 AND is_global = TRUE`
	if !includeArchived {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY topic, name;`
	rows, err := hr.conn.Query(ctx, query, companyID)
	if err != nil {
		return nil, errors.New("listing habits error: " + err.Error())
	}
	defer rows.Close()
	habits := make([]*entity.Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, errors.New("scanning habit row error: " + err.Error())
		}
		habits = append(habits, h)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return habits, nil
}

func (hr *HabitsRepository) Update(ctx context.Context, habit *entity.Habit) error {
	ct, err := hr.conn.Exec(ctx,
		`UPDATE habits SET topic = $1, name = $2, cue = $3, craving = $4, response = $5, reward = $6, external_link = $7 WHERE id = $8;`,
		habit.Topic, habit.Name, habit.Cue, habit.Craving, habit.Response, habit.Reward, habit.ExternalLink, habit.ID,
	)
	if err != nil {
		return errors.New("updating habit error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}

func (hr *HabitsRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	var query string
	if archived {
		query = `UPDATE habits SET deleted_at = NOW() WHERE id = $1;`
	} else {
		query = `UPDATE habits SET deleted_at = NULL WHERE id = $1;`
	}
	ct, err := hr.conn.Exec(ctx, query, id)
	if err != nil {
		return errors.New("archiving habit error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}

func (hr *HabitsRepository) PromoteToGlobal(ctx context.Context, id uuid.UUID) error {
	ct, err := hr.conn.Exec(ctx, `UPDATE habits SET is_global = TRUE, created_by = NULL WHERE id = $1;`, id)
	if err != nil {
		return errors.New("promoting habit error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}
