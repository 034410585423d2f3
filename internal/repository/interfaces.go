package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/foresvi/tracker/pkg/entity"
)

// AssignedHabit is an assignment row joined with its habit template.
type AssignedHabit struct {
	Assignment entity.Assignment
	Habit      entity.Habit
}

type HabitsRepositoryI interface {
	// Creates new habit. Returns generated id
	Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error)
	// Searches habit with given id, archived ones included
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error)
	// Searches non-archived habit by name inside a company. Used by bulk import upserts
	GetByNameAndCompany(ctx context.Context, name, companyID string) (*entity.Habit, error)
	// Lists global habits of a company. Archived rows excluded unless includeArchived
	ListGlobal(ctx context.Context, companyID string, includeArchived bool) ([]*entity.Habit, error)
	// Updates template text in place. Never touches assignment snapshots
	Update(ctx context.Context, habit *entity.Habit) error
	// Sets or clears the soft-delete timestamp
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	// Clears creator and marks the habit global
	PromoteToGlobal(ctx context.Context, id uuid.UUID) error
}

type AssignmentsRepositoryI interface {
	Create(ctx context.Context, a *entity.Assignment) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error)
	// Looks up the single row for a (user, habit) pair regardless of active flag
	GetByUserAndHabit(ctx context.Context, userID, habitID uuid.UUID) (*entity.Assignment, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// Overwrites custom fields and the consolidated flag
	UpdateCustomization(ctx context.Context, a *entity.Assignment) error
	// Lists active assignments of a user joined with their habits
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]AssignedHabit, error)
	// Lists users holding an assignment to the habit
	ListAssignees(ctx context.Context, habitID uuid.UUID) ([]*entity.User, error)
}

type ProgressRepositoryI interface {
	// Inserts or overwrites the row for (assignment, period)
	Upsert(ctx context.Context, log *entity.ProgressLog) error
	ListByAssignments(ctx context.Context, assignmentIDs []uuid.UUID) ([]entity.ProgressLog, error)
}

type UsersRepositoryI interface {
	Create(ctx context.Context, user *entity.User) (uuid.UUID, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	ListByCompany(ctx context.Context, companyID string, includeDeleted bool) ([]*entity.User, error)
	SetDeleted(ctx context.Context, uid uuid.UUID, deleted bool) error
	SetGroup(ctx context.Context, uid uuid.UUID, groupID *uuid.UUID) error
}

type GroupsRepositoryI interface {
	Create(ctx context.Context, group *entity.Group) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Group, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Group, error)
	// Counts users in the group whose soft-delete timestamp is unset
	CountActiveMembers(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
