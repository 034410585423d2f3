package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

// TODO: replace the beta default password with an invite-token flow.
const defaultUserPassword = "foresvi2026"

type UserAdminService struct {
	usersRepo  repository.UsersRepositoryI
	groupsRepo repository.GroupsRepositoryI
}

func NewUserAdminService(usersRepo repository.UsersRepositoryI, groupsRepo repository.GroupsRepositoryI) *UserAdminService {
	if usersRepo == nil || groupsRepo == nil {
		log.Fatal("on user admin service provided nil repos")
	}
	return &UserAdminService{
		usersRepo:  usersRepo,
		groupsRepo: groupsRepo,
	}
}

func (us *UserAdminService) Login(ctx context.Context, email, password string) (*entity.User, error) {
	if email == "" || password == "" {
		return nil, errorvalues.ErrWrongCredentials
	}
	user, err := us.usersRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, errorvalues.ErrWrongCredentials
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	if user.DeletedAt != nil {
		return nil, errorvalues.ErrWrongCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errorvalues.ErrWrongCredentials
	}
	return user, nil
}

func (us *UserAdminService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := us.usersRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	return user, nil
}

func (us *UserAdminService) CreateUser(ctx context.Context, companyID string, req *CreateUserRequest) (*entity.User, error) {
	if err := validateStruct(*req); err != nil {
		return nil, err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(defaultUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("hashing password error: " + err.Error())
	}
	user := entity.User{
		CompanyID:    companyID,
		GroupID:      req.GroupID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         entity.RoleUser,
	}
	id, err := us.usersRepo.Create(ctx, &user)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserExists) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	user.ID = id
	return &user, nil
}

func (us *UserAdminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return us.setUserDeleted(ctx, id, true)
}

func (us *UserAdminService) RestoreUser(ctx context.Context, id uuid.UUID) error {
	return us.setUserDeleted(ctx, id, false)
}

func (us *UserAdminService) setUserDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	err := us.usersRepo.SetDeleted(ctx, id, deleted)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return err
		}
		return errors.New("users repository error: " + err.Error())
	}
	return nil
}

func (us *UserAdminService) SetUserGroup(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) error {
	if groupID != nil {
		if _, err := us.groupsRepo.GetByID(ctx, *groupID); err != nil {
			if errors.Is(err, errorvalues.ErrGroupNotFound) {
				return err
			}
			return errors.New("groups repository error: " + err.Error())
		}
	}
	err := us.usersRepo.SetGroup(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return err
		}
		return errors.New("users repository error: " + err.Error())
	}
	return nil
}

func (us *UserAdminService) ListUsers(ctx context.Context, companyID string, includeDeleted bool) ([]*entity.User, error) {
	users, err := us.usersRepo.ListByCompany(ctx, companyID, includeDeleted)
	if err != nil {
		return nil, errors.New("users repository error: " + err.Error())
	}
	return users, nil
}

func (us *UserAdminService) CreateGroup(ctx context.Context, companyID string, req *CreateGroupRequest) (*entity.Group, error) {
	if err := validateStruct(*req); err != nil {
		return nil, err
	}
	group := entity.Group{
		CompanyID: companyID,
		Name:      req.Name,
	}
	id, err := us.groupsRepo.Create(ctx, &group)
	if err != nil {
		return nil, errors.New("groups repository error: " + err.Error())
	}
	group.ID = id
	return &group, nil
}

func (us *UserAdminService) ListGroups(ctx context.Context, companyID string) ([]*entity.Group, error) {
	groups, err := us.groupsRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, errors.New("groups repository error: " + err.Error())
	}
	return groups, nil
}

// DeleteGroup blocks while the group still has active members. The
// check runs before the delete; the count is reported to the caller.
func (us *UserAdminService) DeleteGroup(ctx context.Context, id uuid.UUID) (int, error) {
	count, err := us.groupsRepo.CountActiveMembers(ctx, id)
	if err != nil {
		return 0, errors.New("groups repository error: " + err.Error())
	}
	if count > 0 {
		return count, errorvalues.ErrGroupHasMembers
	}
	err = us.groupsRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGroupNotFound) {
			return 0, err
		}
		return 0, errors.New("groups repository error: " + err.Error())
	}
	return 0, nil
}
