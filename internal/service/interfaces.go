package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/foresvi/tracker/pkg/entity"
)

// Actor is the caller identity threaded through every mutation: no
// hardcoded tenant, no ambient session state.
type Actor struct {
	ID        uuid.UUID
	CompanyID string
	Role      entity.Role
}

// CanActOn reports whether the actor may mutate rows of the given user.
func (a Actor) CanActOn(userID uuid.UUID) bool {
	return a.ID == userID || a.Role.IsAdmin()
}

type HabitInput struct {
	Topic        string  `validate:"required"`
	Name         string  `validate:"required"`
	Cue          string  `validate:"max=2000"`
	Craving      string  `validate:"max=2000"`
	Response     string  `validate:"max=2000"`
	Reward       string  `validate:"max=2000"`
	ExternalLink *string `validate:"omitempty,url"`
}

// CustomizeInput carries only the fields the caller wants to overwrite;
// nil fields keep their current values.
type CustomizeInput struct {
	CustomName         *string
	CustomCue          *string
	CustomCraving      *string
	CustomResponse     *string
	CustomReward       *string
	CustomExternalLink *string
	IsConsolidated     *bool
}

type ProgressInput struct {
	Period string        `validate:"required"`
	Status entity.Status `validate:"traffic_status"`
}

type CreateUserRequest struct {
	Name    string `validate:"required,min=2,max=200"`
	Email   string `validate:"required,email"`
	GroupID *uuid.UUID
}

type CreateGroupRequest struct {
	Name string `validate:"required,min=2,max=200"`
}

type HabitCatalogServiceI interface {
	// Creates a global habit in the company catalog
	CreateHabit(ctx context.Context, companyID string, input *HabitInput) (*entity.Habit, error)
	// Creates a habit private to its creator; never listed in the catalog
	CreatePrivateHabit(ctx context.Context, companyID string, creatorID uuid.UUID, input *HabitInput) (*entity.Habit, error)
	// Edits template text in place. Existing assignment snapshots are untouched
	UpdateHabit(ctx context.Context, id uuid.UUID, input *HabitInput) (*entity.Habit, error)
	ArchiveHabit(ctx context.Context, id uuid.UUID) error
	RestoreHabit(ctx context.Context, id uuid.UUID) error
	// Clears the creator and makes the habit company-wide. Irreversible
	PromoteToGlobal(ctx context.Context, id uuid.UUID) error
	ListCatalog(ctx context.Context, companyID string, includeArchived bool) ([]*entity.Habit, error)
	ListAssignees(ctx context.Context, habitID uuid.UUID) ([]*entity.User, error)
}

type AssignmentServiceI interface {
	// Assign creates the (user, habit) row with a snapshot of the habit
	// text, or reactivates an existing row without re-snapshotting.
	// Idempotent when already active.
	Assign(ctx context.Context, actor Actor, userID, habitID uuid.UUID) (*entity.Assignment, error)
	// Unassign deactivates the row if present; progress logs survive.
	Unassign(ctx context.Context, actor Actor, userID, habitID uuid.UUID) error
	// Customize overwrites only the provided custom fields.
	Customize(ctx context.Context, actor Actor, assignmentID uuid.UUID, input *CustomizeInput) (*entity.Assignment, error)
}

type ProgressServiceI interface {
	// SetStatus upserts the log for (assignment, period) and returns the
	// stored status.
	SetStatus(ctx context.Context, actor Actor, assignmentID uuid.UUID, period string, status entity.Status) (entity.Status, error)
	// CycleStatus advances the displayed status by the canonical rotation
	// and stores the result.
	CycleStatus(ctx context.Context, actor Actor, assignmentID uuid.UUID, period string, current entity.Status) (entity.Status, error)
}

type ViewMode string

const (
	ViewWeekly  ViewMode = "weekly"
	ViewMonthly ViewMode = "monthly"
)

type DashboardServiceI interface {
	GetDashboard(ctx context.Context, userID uuid.UUID, view ViewMode, anchor time.Time) (*DashboardView, error)
}

type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type ImporterServiceI interface {
	// ImportHabits parses delimited text and upserts habits by (name,
	// company). Row failures are counted, not fatal.
	ImportHabits(ctx context.Context, companyID string, r io.Reader) (*ImportSummary, error)
}

type Report struct {
	Filename string
	CSV      []byte
}

type ReportServiceI interface {
	BuildUserReport(ctx context.Context, actor Actor, targetUserID uuid.UUID) (*Report, error)
}

type UserAdminServiceI interface {
	// Login verifies credentials and returns the active user row
	Login(ctx context.Context, email, password string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	CreateUser(ctx context.Context, companyID string, req *CreateUserRequest) (*entity.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	RestoreUser(ctx context.Context, id uuid.UUID) error
	SetUserGroup(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) error
	ListUsers(ctx context.Context, companyID string, includeDeleted bool) ([]*entity.User, error)
	CreateGroup(ctx context.Context, companyID string, req *CreateGroupRequest) (*entity.Group, error)
	ListGroups(ctx context.Context, companyID string) ([]*entity.Group, error)
	// DeleteGroup fails with ErrGroupHasMembers while active members
	// remain; the returned count names the blockers.
	DeleteGroup(ctx context.Context, id uuid.UUID) (int, error)
}
