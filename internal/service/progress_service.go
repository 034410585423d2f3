package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

type ProgressService struct {
	assignmentsRepo repository.AssignmentsRepositoryI
	progressRepo    repository.ProgressRepositoryI
}

func NewProgressService(assignmentsRepo repository.AssignmentsRepositoryI, progressRepo repository.ProgressRepositoryI) *ProgressService {
	if assignmentsRepo == nil || progressRepo == nil {
		log.Fatal("on progress service provided nil repos")
	}
	return &ProgressService{
		assignmentsRepo: assignmentsRepo,
		progressRepo:    progressRepo,
	}
}

// SetStatus upserts the log row for (assignment, period), recomputing
// the stored numeric value from the fixed table. Last write wins on the
// unique key.
func (ps *ProgressService) SetStatus(ctx context.Context, actor Actor, assignmentID uuid.UUID, period string, status entity.Status) (entity.Status, error) {
	if err := validateStruct(ProgressInput{Period: period, Status: status}); err != nil {
		return "", err
	}
	a, err := ps.assignmentsRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrAssignmentNotFound) {
			return "", err
		}
		return "", errors.New("assignments repository error: " + err.Error())
	}
	if !actor.CanActOn(a.UserID) {
		return "", errorvalues.ErrForbidden
	}
	err = ps.progressRepo.Upsert(ctx, &entity.ProgressLog{
		AssignmentID:     assignmentID,
		PeriodIdentifier: period,
		Status:           status,
		Value:            status.Value(),
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrAssignmentNotFound) {
			return "", err
		}
		return "", errors.New("progress repository error: " + err.Error())
	}
	return status, nil
}

// CycleStatus rotates the currently displayed status one step and
// stores the result. The rotation is the canonical matrix-click order.
func (ps *ProgressService) CycleStatus(ctx context.Context, actor Actor, assignmentID uuid.UUID, period string, current entity.Status) (entity.Status, error) {
	if !current.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", errorvalues.ErrValidation, current)
	}
	return ps.SetStatus(ctx, actor, assignmentID, period, NextStatus(current))
}
