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

type HabitCatalogService struct {
	repo            repository.HabitsRepositoryI
	assignmentsRepo repository.AssignmentsRepositoryI
}

func NewHabitCatalogService(habitsRepo repository.HabitsRepositoryI, assignmentsRepo repository.AssignmentsRepositoryI) *HabitCatalogService {
	if habitsRepo == nil || assignmentsRepo == nil {
		log.Fatal("provided nil repos to habit catalog service")
	}
	return &HabitCatalogService{
		repo:            habitsRepo,
		assignmentsRepo: assignmentsRepo,
	}
}

func (hs *HabitCatalogService) CreateHabit(ctx context.Context, companyID string, input *HabitInput) (*entity.Habit, error) {
	return hs.create(ctx, companyID, nil, input)
}

func (hs *HabitCatalogService) CreatePrivateHabit(ctx context.Context, companyID string, creatorID uuid.UUID, input *HabitInput) (*entity.Habit, error) {
	return hs.create(ctx, companyID, &creatorID, input)
}

func (hs *HabitCatalogService) create(ctx context.Context, companyID string, creatorID *uuid.UUID, input *HabitInput) (*entity.Habit, error) {
	if err := validateStruct(*input); err != nil {
		return nil, err
	}
	h := entity.Habit{
		CompanyID:    companyID,
		Topic:        input.Topic,
		Name:         input.Name,
		Cue:          input.Cue,
		Craving:      input.Craving,
		Response:     input.Response,
		Reward:       input.Reward,
		ExternalLink: input.ExternalLink,
		IsGlobal:     creatorID == nil,
		CreatedBy:    creatorID,
	}
	id, err := hs.repo.Create(ctx, &h)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitExists) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	h.ID = id
	return &h, nil
}

// UpdateHabit edits the shared template in place. Assignment snapshots
// are deliberately left alone: users keep the text they were assigned.
func (hs *HabitCatalogService) UpdateHabit(ctx context.Context, id uuid.UUID, input *HabitInput) (*entity.Habit, error) {
	if err := validateStruct(*input); err != nil {
		return nil, err
	}
	habit, err := hs.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	habit.Topic = input.Topic
	habit.Name = input.Name
	habit.Cue = input.Cue
	habit.Craving = input.Craving
	habit.Response = input.Response
	habit.Reward = input.Reward
	habit.ExternalLink = input.ExternalLink
	if err = hs.repo.Update(ctx, habit); err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	return habit, nil
}

func (hs *HabitCatalogService) ArchiveHabit(ctx context.Context, id uuid.UUID) error {
	return hs.setArchived(ctx, id, true)
}

func (hs *HabitCatalogService) RestoreHabit(ctx context.Context, id uuid.UUID) error {
	return hs.setArchived(ctx, id, false)
}

func (hs *HabitCatalogService) setArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	err := hs.repo.SetArchived(ctx, id, archived)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return err
		}
		return errors.New("habits repository error: " + err.Error())
	}
	return nil
}

func (hs *HabitCatalogService) PromoteToGlobal(ctx context.Context, id uuid.UUID) error {
	err := hs.repo.PromoteToGlobal(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return err
		}
		return errors.New("habits repository error: " + err.Error())
	}
	return nil
}

// ListCatalog lists global habits only; private habits stay inside the
// owning user's assignment view.
func (hs *HabitCatalogService) ListCatalog(ctx context.Context, companyID string, includeArchived bool) ([]*entity.Habit, error) {
	habits, err := hs.repo.ListGlobal(ctx, companyID, includeArchived)
	if err != nil {
		return nil, errors.New("habits repository error: " + err.Error())
	}
	return habits, nil
}

func (hs *HabitCatalogService) ListAssignees(ctx context.Context, habitID uuid.UUID) ([]*entity.User, error) {
	if _, err := hs.repo.GetByID(ctx, habitID); err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	users, err := hs.assignmentsRepo.ListAssignees(ctx, habitID)
	if err != nil {
		return nil, errors.New("assignments repository error: " + err.Error())
	}
	return users, nil
}
