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

type AssignmentsRepository struct {
	conn PgConnection
}

func NewAssignmentsRepo(cfg DBConfig) *AssignmentsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for assignmentsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for assignmentsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing assignments pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &AssignmentsRepository{
		conn: pool,
	}
}

func NewAssignmentsRepoWithConn(conn PgConnection) *AssignmentsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for assignmentsRepo: " + err.Error())
	}
	return &AssignmentsRepository{
		conn: conn,
	}
}

const assignmentColumns = `id, user_id, habit_id, is_active, is_consolidated, custom_name, custom_cue, custom_craving, custom_response, custom_reward, custom_external_link`

func scanAssignment(row pgx.Row) (*entity.Assignment, error) {
	var a entity.Assignment
	err := row.Scan(&a.ID, &a.UserID, &a.HabitID, &a.IsActive, &a.IsConsolidated,
		&a.CustomName, &a.CustomCue, &a.CustomCraving, &a.CustomResponse, &a.CustomReward, &a.CustomExternalLink)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (ar *AssignmentsRepository) Create(ctx context.Context, a *entity.Assignment) (uuid.UUID, error) {
	var id uuid.UUID
	row := ar.conn.QueryRow(ctx,
		`INSERT INTO assignments (user_id, habit_id, is_active, is_consolidated, custom_name, custom_cue, custom_craving, custom_response, custom_reward, custom_external_link)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id;`,
		a.UserID, a.HabitID, a.IsActive, a.IsConsolidated,
		a.CustomName, a.CustomCue, a.CustomCraving, a.CustomResponse, a.CustomReward, a.CustomExternalLink,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation on (user_id, habit_id)
			case "23505":
				return uuid.UUID{}, errorvalues.ErrAssignmentExists
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrHabitNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating assignment db error: " + err.Error())
	}
	return id, nil
}

func (ar *AssignmentsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	row := ar.conn.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1;`, id)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrAssignmentNotFound
		}
		return nil, errors.New("getting assignment by id error: " + err.Error())
	}
	return a, nil
}

func (ar *AssignmentsRepository) GetByUserAndHabit(ctx context.Context, userID, habitID uuid.UUID) (*entity.Assignment, error) {
	row := ar.conn.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE user_id = $1 AND habit_id = $2;`,
		userID, habitID,
	)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrAssignmentNotFound
		}
		return nil, errors.New("getting assignment by user and habit error: " + err.Error())
	}
	return a, nil
}

func (ar *AssignmentsRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	ct, err := ar.conn.Exec(ctx, `UPDATE assignments SET is_active = $1 WHERE id = $2;`, active, id)
	if err != nil {
		return errors.New("toggling assignment error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrAssignmentNotFound
	}
	return nil
}

func (ar *AssignmentsRepository) UpdateCustomization(ctx context.Context, a *entity.Assignment) error {
	ct, err := ar.conn.Exec(ctx,
		`UPDATE assignments SET is_consolidated = $1, custom_name = $2, custom_cue = $3, custom_craving = $4, custom_response = $5, custom_reward = $6, custom_external_link = $7 WHERE id = $8;`,
		a.IsConsolidated, a.CustomName, a.CustomCue, a.CustomCraving, a.CustomResponse, a.CustomReward, a.CustomExternalLink, a.ID,
	)
	if err != nil {
		return errors.New("updating assignment customization error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrAssignmentNotFound
	}
	return nil
}

func (ar *AssignmentsRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]AssignedHabit, error) {
	rows, err := ar.conn.Query(ctx,
		`SELECT a.id, a.user_id, a.habit_id, a.is_active, a.is_consolidated,
		        a.custom_name, a.custom_cue, a.custom_craving, a.custom_response, a.custom_reward, a.custom_external_link,
		        h.id, h.company_id, h.topic, h.name, h.cue, h.craving, h.response, h.reward, h.external_link, h.is_global, h.created_by, h.deleted_at
		 FROM assignments a JOIN habits h ON h.id = a.habit_id
		 WHERE a.user_id = $1 AND a.is_active = TRUE
		 ORDER BY h.topic, h.name;`,
		userID,
	)
	if err != nil {
		return nil, errors.New("listing active assignments error: " + err.Error())
	}
	defer rows.Close()
	result := make([]AssignedHabit, 0)
	for rows.Next() {
		var item AssignedHabit
		a := &item.Assignment
		h := &item.Habit
		err = rows.Scan(&a.ID, &a.UserID, &a.HabitID, &a.IsActive, &a.IsConsolidated,
			&a.CustomName, &a.CustomCue, &a.CustomCraving, &a.CustomResponse, &a.CustomReward, &a.CustomExternalLink,
			&h.ID, &h.CompanyID, &h.Topic, &h.Name, &h.Cue, &h.Craving,
			&h.Response, &h.Reward, &h.ExternalLink, &h.IsGlobal, &h.CreatedBy, &h.DeletedAt)
		if err != nil {
			return nil, errors.New("scanning assigned habit row error: " + err.Error())
		}
		result = append(result, item)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return result, nil
}

func (ar *AssignmentsRepository) ListAssignees(ctx context.Context, habitID uuid.UUID) ([]*entity.User, error) {
	rows, err := ar.conn.Query(ctx,
		`SELECT u.id, u.company_id, u.group_id, u.name, u.email, u.role, u.deleted_at
		 FROM assignments a JOIN users u ON u.id = a.user_id
		 WHERE a.habit_id = $1
		 ORDER BY u.name;`,
		habitID,
	)
	if err != nil {
		return nil, errors.New("listing assignees error: " + err.Error())
	}
	defer rows.Close()
	users := make([]*entity.User, 0)
	for rows.Next() {
		var u entity.User
		err = rows.Scan(&u.ID, &u.CompanyID, &u.GroupID, &u.Name, &u.Email, &u.Role, &u.DeletedAt)
		if err != nil {
			return nil, errors.New("scanning assignee row error: " + err.Error())
		}
		users = append(users, &u)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return users, nil
}
