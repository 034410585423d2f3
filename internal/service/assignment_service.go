package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

type AssignmentService struct {
	habitsRepo      repository.HabitsRepositoryI
	assignmentsRepo repository.AssignmentsRepositoryI
}

func NewAssignmentService(habitsRepo repository.HabitsRepositoryI, assignmentsRepo repository.AssignmentsRepositoryI) *AssignmentService {
	if habitsRepo == nil || assignmentsRepo == nil {
		log.Fatal("on assignment service provided nil repos")
	}
	return &AssignmentService{
		habitsRepo:      habitsRepo,
		assignmentsRepo: assignmentsRepo,
	}
}

// Assign moves the (user, habit) pair to the Assigned state. A brand
// new row snapshots the habit's current text into the custom fields, so
// later template edits never reach this user. A previously deactivated
// row is only reactivated: its earlier customizations stay as they
// were.
func (as *AssignmentService) Assign(ctx context.Context, actor Actor, userID, habitID uuid.UUID) (*entity.Assignment, error) {
	if !actor.CanActOn(userID) {
		return nil, errorvalues.ErrForbidden
	}
	existing, err := as.assignmentsRepo.GetByUserAndHabit(ctx, userID, habitID)
	if err != nil && !errors.Is(err, errorvalues.ErrAssignmentNotFound) {
		return nil, errors.New("assignments repository error: " + err.Error())
	}
	if existing != nil {
		if existing.IsActive {
			return existing, nil
		}
		if err = as.assignmentsRepo.SetActive(ctx, existing.ID, true); err != nil {
			return nil, errors.New("assignments repository error: " + err.Error())
		}
		existing.IsActive = true
		return existing, nil
	}

	habit, err := as.habitsRepo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	a := entity.Assignment{
		UserID:             userID,
		HabitID:            habitID,
		IsActive:           true,
		CustomCue:          strPtr(habit.Cue),
		CustomCraving:      strPtr(habit.Craving),
		CustomResponse:     strPtr(habit.Response),
		CustomReward:       strPtr(habit.Reward),
		CustomExternalLink: habit.ExternalLink,
	}
	id, err := as.assignmentsRepo.Create(ctx, &a)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAssignmentExists) {
			// Lost the race with a concurrent assign; the row exists now.
			return as.assignmentsRepo.GetByUserAndHabit(ctx, userID, habitID)
		}
		return nil, errors.New("assignments repository error: " + err.Error())
	}
	a.ID = id
	return &a, nil
}

// Unassign deactivates the row; no-op when the pair was never assigned.
// Progress logs are retained so history survives re-assignment.
func (as *AssignmentService) Unassign(ctx context.Context, actor Actor, userID, habitID uuid.UUID) error {
	if !actor.CanActOn(userID) {
		return errorvalues.ErrForbidden
	}
	existing, err := as.assignmentsRepo.GetByUserAndHabit(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAssignmentNotFound) {
			return nil
		}
		return errors.New("assignments repository error: " + err.Error())
	}
	if !existing.IsActive {
		return nil
	}
	if err = as.assignmentsRepo.SetActive(ctx, existing.ID, false); err != nil {
		return errors.New("assignments repository error: " + err.Error())
	}
	return nil
}

// Customize overwrites only the provided custom fields and the
// consolidated flag. The shared habit template is never touched here.
func (as *AssignmentService) Customize(ctx context.Context, actor Actor, assignmentID uuid.UUID, input *CustomizeInput) (*entity.Assignment, error) {
	a, err := as.assignmentsRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAssignmentNotFound) {
			return nil, err
		}
		return nil, errors.New("assignments repository error: " + err.Error())
	}
	if !actor.CanActOn(a.UserID) {
		return nil, errorvalues.ErrForbidden
	}
	if input.CustomName != nil {
		a.CustomName = input.CustomName
	}
	if input.CustomCue != nil {
		a.CustomCue = input.CustomCue
	}
	if input.CustomCraving != nil {
		a.CustomCraving = input.CustomCraving
	}
	if input.CustomResponse != nil {
		a.CustomResponse = input.CustomResponse
	}
	if input.CustomReward != nil {
		a.CustomReward = input.CustomReward
	}
	if input.CustomExternalLink != nil {
		a.CustomExternalLink = input.CustomExternalLink
	}
	if input.IsConsolidated != nil {
		a.IsConsolidated = *input.IsConsolidated
	}
	if err = as.assignmentsRepo.UpdateCustomization(ctx, a); err != nil {
		if errors.Is(err, errorvalues.ErrAssignmentNotFound) {
			return nil, err
		}
		return nil, errors.New("assignments repository error: " + err.Error())
	}
	return a, nil
}

func strPtr(s string) *string {
	return &s
}
