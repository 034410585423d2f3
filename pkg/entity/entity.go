package entity

import (
	"time"

	"github.com/google/uuid"
)

// Status is the four-state traffic light used for weekly progress.
type Status string

const (
	StatusNegra    Status = "NEGRA"
	StatusRoja     Status = "ROJA"
	StatusAmarilla Status = "AMARILLA"
	StatusVerde    Status = "VERDE"
)

// StatusOrder is the fixed low-to-high ordering of statuses. Monthly
// mode tie-breaks depend on this exact order.
var StatusOrder = [4]Status{StatusNegra, StatusRoja, StatusAmarilla, StatusVerde}

// Scores maps each status to its numeric value. The table is fixed and
// not configurable.
var Scores = map[Status]float64{
	StatusNegra:    0.0,
	StatusRoja:     0.33,
	StatusAmarilla: 0.66,
	StatusVerde:    1.0,
}

func (s Status) Valid() bool {
	_, ok := Scores[s]
	return ok
}

func (s Status) Value() float64 {
	return Scores[s]
}

type Role string

const (
	RoleUser         Role = "USER"
	RoleCompanyAdmin Role = "COMPANY_ADMIN"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
)

func (r Role) IsAdmin() bool {
	return r == RoleCompanyAdmin || r == RoleSuperAdmin
}

type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID        uuid.UUID `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	CompanyID    string     `json:"company_id"`
	GroupID      *uuid.UUID `json:"group_id,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Habit is a company-scoped template of behavior-change text. Private
// habits (IsGlobal=false) must carry a creator and are visible only in
// that user's assignment view. Habits are never hard-deleted.
type Habit struct {
	ID           uuid.UUID  `json:"id"`
	CompanyID    string     `json:"company_id"`
	Topic        string     `json:"topic"`
	Name         string     `json:"name"`
	Cue          string     `json:"cue"`
	Craving      string     `json:"craving"`
	Response     string     `json:"response"`
	Reward       string     `json:"reward"`
	ExternalLink *string    `json:"external_link,omitempty"`
	IsGlobal     bool       `json:"is_global"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Assignment binds a user to a habit. The custom fields hold a snapshot
// of the habit text taken when the assignment was first created, so
// later edits to the shared template never leak into it. Exactly one
// row exists per (user, habit) pair; unassignment flips IsActive.
type Assignment struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	HabitID            uuid.UUID `json:"habit_id"`
	IsActive           bool      `json:"is_active"`
	IsConsolidated     bool      `json:"is_consolidated"`
	CustomName         *string   `json:"custom_name,omitempty"`
	CustomCue          *string   `json:"custom_cue,omitempty"`
	CustomCraving      *string   `json:"custom_craving,omitempty"`
	CustomResponse     *string   `json:"custom_response,omitempty"`
	CustomReward       *string   `json:"custom_reward,omitempty"`
	CustomExternalLink *string   `json:"custom_external_link,omitempty"`
}

// ProgressLog is one status observation for one assignment in one
// period. Unique per (AssignmentID, PeriodIdentifier); writes upsert in
// place. Monthly rows are derived on read and never persisted.
type ProgressLog struct {
	AssignmentID     uuid.UUID `json:"assignment_id"`
	PeriodIdentifier string    `json:"period_identifier"`
	Status           Status    `json:"status"`
	Value            float64   `json:"value"`
	LoggedAt         time.Time `json:"logged_at"`
}
