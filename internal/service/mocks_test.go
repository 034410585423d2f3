package service_test

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/internal/service"
	"github.com/foresvi/tracker/pkg/entity"
)

func TestMain(m *testing.M) {
	service.InitValidator()
	m.Run()
}

var testTime = time.Date(2025, time.October, 6, 12, 0, 0, 0, time.UTC)

// In-memory repository fakes. Each fake keeps rows in a map and can be
// switched into a failing state through failErr to exercise error paths.

type habitsRepoFake struct {
	habits  map[uuid.UUID]*entity.Habit
	failErr error
}

func newHabitsRepoFake() *habitsRepoFake {
	return &habitsRepoFake{habits: make(map[uuid.UUID]*entity.Habit)}
}

func (f *habitsRepoFake) Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error) {
	if f.failErr != nil {
		return uuid.UUID{}, f.failErr
	}
	for _, h := range f.habits {
		if h.Name == habit.Name && h.CompanyID == habit.CompanyID && h.DeletedAt == nil {
			return uuid.UUID{}, errorvalues.ErrHabitExists
		}
	}
	cp := *habit
	cp.ID = uuid.New()
	f.habits[cp.ID] = &cp
	return cp.ID, nil
}

func (f *habitsRepoFake) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	h, ok := f.habits[id]
	if !ok {
		return nil, errorvalues.ErrHabitNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *habitsRepoFake) GetByNameAndCompany(ctx context.Context, name, companyID string) (*entity.Habit, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, h := range f.habits {
		if h.Name == name && h.CompanyID == companyID && h.DeletedAt == nil {
			cp := *h
			return &cp, nil
		}
	}
	return nil, errorvalues.ErrHabitNotFound
}

func (f *habitsRepoFake) ListGlobal(ctx context.Context, companyID string, includeArchived bool) ([]*entity.Habit, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	habits := make([]*entity.Habit, 0)
	for _, h := range f.habits {
		if h.CompanyID != companyID || !h.IsGlobal {
			continue
		}
		if h.DeletedAt != nil && !includeArchived {
			continue
		}
		cp := *h
		habits = append(habits, &cp)
	}
	sort.Slice(habits, func(i, j int) bool {
		if habits[i].Topic != habits[j].Topic {
			return habits[i].Topic < habits[j].Topic
		}
		return habits[i].Name < habits[j].Name
	})
	return habits, nil
}

func (f *habitsRepoFake) Update(ctx context.Context, habit *entity.Habit) error {
	if f.failErr != nil {
		return f.failErr
	}
	stored, ok := f.habits[habit.ID]
	if !ok {
		return errorvalues.ErrHabitNotFound
	}
	stored.Topic = habit.Topic
	stored.Name = habit.Name
	stored.Cue = habit.Cue
	stored.Craving = habit.Craving
	stored.Response = habit.Response
	stored.Reward = habit.Reward
	stored.ExternalLink = habit.ExternalLink
	return nil
}

func (f *habitsRepoFake) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	if f.failErr != nil {
		return f.failErr
	}
	stored, ok := f.habits[id]
	if !ok {
		return errorvalues.ErrHabitNotFound
	}
	if archived {
		now := testTime
		stored.DeletedAt = &now
	} else {
		stored.DeletedAt = nil
	}
	return nil
}

func (f *habitsRepoFake) PromoteToGlobal(ctx context.Context, id uuid.UUID) error {
	if f.failErr != nil {
		return f.failErr
	}
	stored, ok := f.habits[id]
	if !ok {
		return errorvalues.ErrHabitNotFound
	}
	stored.IsGlobal = true
	stored.CreatedBy = nil
	return nil
}

type assignmentsRepoFake struct {
	assignments map[uuid.UUID]*entity.Assignment
	habits      *habitsRepoFake
	users       *usersRepoFake
	failErr     error
}

func newAssignmentsRepoFake(habits *habitsRepoFake, users *usersRepoFake) *assignmentsRepoFake {
	return &assignmentsRepoFake{
		assignments: make(map[uuid.UUID]*entity.Assignment),
		habits:      habits,
		users:       users,
	}
}

func (f *assignmentsRepoFake) Create(ctx context.Context, a *entity.Assignment) (uuid.UUID, error) {
	if f.failErr != nil {
		return uuid.UUID{}, f.failErr
	}
	for _, stored := range f.assignments {
		if stored.UserID == a.UserID && stored.HabitID == a.HabitID {
			return uuid.UUID{}, errorvalues.ErrAssignmentExists
		}
	}
	if f.habits != nil {
		if _, ok := f.habits.habits[a.HabitID]; !ok {
			return uuid.UUID{}, errorvalues.ErrHabitNotFound
		}
	}
	cp := *a
	cp.ID = uuid.New()
	f.assignments[cp.ID] = &cp
	return cp.ID, nil
}

func (f *assignmentsRepoFake) GetByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	a, ok := f.assignments[id]
	if !ok {
		return nil, errorvalues.ErrAssignmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *assignmentsRepoFake) GetByUserAndHabit(ctx context.Context, userID, habitID uuid.UUID) (*entity.Assignment, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, a := range f.assignments {
		if a.UserID == userID && a.HabitID == habitID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errorvalues.ErrAssignmentNotFound
}

func (f *assignmentsRepoFake) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if f.failErr != nil {
		return f.failErr
	}
	a, ok := f.assignments[id]
	if !ok {
		return errorvalues.ErrAssignmentNotFound
	}
	a.IsActive = active
	return nil
}

func (f *assignmentsRepoFake) UpdateCustomization(ctx context.Context, a *entity.Assignment) error {
	if f.failErr != nil {
		return f.failErr
	}
	stored, ok := f.assignments[a.ID]
	if !ok {
		return errorvalues.ErrAssignmentNotFound
	}
	stored.IsConsolidated = a.IsConsolidated
	stored.CustomName = a.CustomName
	stored.CustomCue = a.CustomCue
	stored.CustomCraving = a.CustomCraving
	stored.CustomResponse = a.CustomResponse
	stored.CustomReward = a.CustomReward
	stored.CustomExternalLink = a.CustomExternalLink
	return nil
}

func (f *assignmentsRepoFake) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]repository.AssignedHabit, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	result := make([]repository.AssignedHabit, 0)
	for _, a := range f.assignments {
		if a.UserID != userID || !a.IsActive {
			continue
		}
		item := repository.AssignedHabit{Assignment: *a}
		if f.habits != nil {
			if h, ok := f.habits.habits[a.HabitID]; ok {
				item.Habit = *h
			}
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		hi, hj := result[i].Habit, result[j].Habit
		if hi.Topic != hj.Topic {
			return hi.Topic < hj.Topic
		}
		return hi.Name < hj.Name
	})
	return result, nil
}

func (f *assignmentsRepoFake) ListAssignees(ctx context.Context, habitID uuid.UUID) ([]*entity.User, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	users := make([]*entity.User, 0)
	for _, a := range f.assignments {
		if a.HabitID != habitID || f.users == nil {
			continue
		}
		if u, ok := f.users.users[a.UserID]; ok {
			cp := *u
			users = append(users, &cp)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

type progressRepoFake struct {
	logs    map[service.LogKey]entity.ProgressLog
	failErr error
}

func newProgressRepoFake() *progressRepoFake {
	return &progressRepoFake{logs: make(map[service.LogKey]entity.ProgressLog)}
}

func (f *progressRepoFake) Upsert(ctx context.Context, log *entity.ProgressLog) error {
	if f.failErr != nil {
		return f.failErr
	}
	key := service.LogKey{AssignmentID: log.AssignmentID, Period: log.PeriodIdentifier}
	f.logs[key] = *log
	return nil
}

func (f *progressRepoFake) ListByAssignments(ctx context.Context, assignmentIDs []uuid.UUID) ([]entity.ProgressLog, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	logs := make([]entity.ProgressLog, 0)
	for _, id := range assignmentIDs {
		for key, l := range f.logs {
			if key.AssignmentID == id {
				logs = append(logs, l)
			}
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].AssignmentID != logs[j].AssignmentID {
			return logs[i].AssignmentID.String() < logs[j].AssignmentID.String()
		}
		return logs[i].PeriodIdentifier < logs[j].PeriodIdentifier
	})
	return logs, nil
}

type usersRepoFake struct {
	users   map[uuid.UUID]*entity.User
	failErr error
}

func newUsersRepoFake() *usersRepoFake {
	return &usersRepoFake{users: make(map[uuid.UUID]*entity.User)}
}

func (f *usersRepoFake) Create(ctx context.Context, user *entity.User) (uuid.UUID, error) {
	if f.failErr != nil {
		return uuid.UUID{}, f.failErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return uuid.UUID{}, errorvalues.ErrUserExists
		}
	}
	cp := *user
	cp.ID = uuid.New()
	f.users[cp.ID] = &cp
	return cp.ID, nil
}

func (f *usersRepoFake) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errorvalues.ErrUserNotFound
}

func (f *usersRepoFake) FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, errorvalues.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *usersRepoFake) ListByCompany(ctx context.Context, companyID string, includeDeleted bool) ([]*entity.User, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	users := make([]*entity.User, 0)
	for _, u := range f.users {
		if u.CompanyID != companyID {
			continue
		}
		if u.DeletedAt != nil && !includeDeleted {
			continue
		}
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (f *usersRepoFake) SetDeleted(ctx context.Context, uid uuid.UUID, deleted bool) error {
	if f.failErr != nil {
		return f.failErr
	}
	u, ok := f.users[uid]
	if !ok {
		return errorvalues.ErrUserNotFound
	}
	if deleted {
		now := testTime
		u.DeletedAt = &now
	} else {
		u.DeletedAt = nil
	}
	return nil
}

func (f *usersRepoFake) SetGroup(ctx context.Context, uid uuid.UUID, groupID *uuid.UUID) error {
	if f.failErr != nil {
		return f.failErr
	}
	u, ok := f.users[uid]
	if !ok {
		return errorvalues.ErrUserNotFound
	}
	u.GroupID = groupID
	return nil
}

type groupsRepoFake struct {
	groups  map[uuid.UUID]*entity.Group
	users   *usersRepoFake
	failErr error
}

func newGroupsRepoFake(users *usersRepoFake) *groupsRepoFake {
	return &groupsRepoFake{
		groups: make(map[uuid.UUID]*entity.Group),
		users:  users,
	}
}

func (f *groupsRepoFake) Create(ctx context.Context, group *entity.Group) (uuid.UUID, error) {
	if f.failErr != nil {
		return uuid.UUID{}, f.failErr
	}
	cp := *group
	cp.ID = uuid.New()
	f.groups[cp.ID] = &cp
	return cp.ID, nil
}

func (f *groupsRepoFake) GetByID(ctx context.Context, id uuid.UUID) (*entity.Group, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	g, ok := f.groups[id]
	if !ok {
		return nil, errorvalues.ErrGroupNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *groupsRepoFake) ListByCompany(ctx context.Context, companyID string) ([]*entity.Group, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	groups := make([]*entity.Group, 0)
	for _, g := range f.groups {
		if g.CompanyID == companyID {
			cp := *g
			groups = append(groups, &cp)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (f *groupsRepoFake) CountActiveMembers(ctx context.Context, id uuid.UUID) (int, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	count := 0
	if f.users != nil {
		for _, u := range f.users.users {
			if u.GroupID != nil && *u.GroupID == id && u.DeletedAt == nil {
				count++
			}
		}
	}
	return count, nil
}

func (f *groupsRepoFake) Delete(ctx context.Context, id uuid.UUID) error {
	if f.failErr != nil {
		return f.failErr
	}
	if _, ok := f.groups[id]; !ok {
		return errorvalues.ErrGroupNotFound
	}
	delete(f.groups, id)
	return nil
}
