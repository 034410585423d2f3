package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/service"
	"github.com/foresvi/tracker/pkg/entity"
)

func newUserAdminFixture() (*service.UserAdminService, *usersRepoFake, *groupsRepoFake) {
	users := newUsersRepoFake()
	groups := newGroupsRepoFake(users)
	return service.NewUserAdminService(users, groups), users, groups
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s, users, _ := newUserAdminFixture()
	password := "secreto123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	uid, err := users.Create(ctx, &entity.User{
		CompanyID:    "foresvi",
		Name:         "Ana Lopez",
		Email:        "ana@foresvi.com",
		PasswordHash: string(hash),
		Role:         entity.RoleUser,
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := s.Login(ctx, "ana@foresvi.com", password)
		require.NoError(t, err)
		assert.Equal(t, uid, user.ID)
	})
	t.Run("wrong password", func(t *testing.T) {
		_, err := s.Login(ctx, "ana@foresvi.com", "nope")
		assert.ErrorIs(t, err, errorvalues.ErrWrongCredentials)
	})
	t.Run("unknown email maps to wrong credentials", func(t *testing.T) {
		_, err := s.Login(ctx, "nadie@foresvi.com", password)
		assert.ErrorIs(t, err, errorvalues.ErrWrongCredentials)
	})
	t.Run("empty input", func(t *testing.T) {
		_, err := s.Login(ctx, "", "")
		assert.ErrorIs(t, err, errorvalues.ErrWrongCredentials)
	})
	t.Run("deactivated user cannot log in", func(t *testing.T) {
		require.NoError(t, s.DeleteUser(ctx, uid))
		_, err := s.Login(ctx, "ana@foresvi.com", password)
		assert.ErrorIs(t, err, errorvalues.ErrWrongCredentials)
	})
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	s, _, groups := newUserAdminFixture()
	groupID, err := groups.Create(ctx, &entity.Group{CompanyID: "foresvi", Name: "Equipo Norte"})
	require.NoError(t, err)

	t.Run("created with hashed default password", func(t *testing.T) {
		user, err := s.CreateUser(ctx, "foresvi", &service.CreateUserRequest{
			Name:    "Ana Lopez",
			Email:   "ana@foresvi.com",
			GroupID: &groupID,
		})
		require.NoError(t, err)
		assert.Equal(t, entity.RoleUser, user.Role)
		assert.Equal(t, "foresvi", user.CompanyID)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, uuid.UUID{}, user.ID)
	})
	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "foresvi", &service.CreateUserRequest{
			Name:  "Otra Ana",
			Email: "ana@foresvi.com",
		})
		assert.ErrorIs(t, err, errorvalues.ErrUserExists)
	})
	t.Run("invalid email", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "foresvi", &service.CreateUserRequest{
			Name:  "Sin Correo",
			Email: "not-an-email",
		})
		assert.ErrorIs(t, err, errorvalues.ErrValidation)
	})
	t.Run("missing name", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "foresvi", &service.CreateUserRequest{
			Email: "x@foresvi.com",
		})
		assert.ErrorIs(t, err, errorvalues.ErrValidation)
	})
}

func TestDeleteAndRestoreUser(t *testing.T) {
	ctx := context.Background()
	s, users, _ := newUserAdminFixture()
	uid, err := users.Create(ctx, &entity.User{
		CompanyID: "foresvi", Name: "Ana Lopez", Email: "ana@foresvi.com", Role: entity.RoleUser,
	})
	require.NoError(t, err)

	t.Run("soft delete keeps the row", func(t *testing.T) {
		require.NoError(t, s.DeleteUser(ctx, uid))
		user, err := s.GetByID(ctx, uid)
		require.NoError(t, err)
		assert.NotNil(t, user.DeletedAt)
	})
	t.Run("deleted users hidden from the default listing", func(t *testing.T) {
		listed, err := s.ListUsers(ctx, "foresvi", false)
		require.NoError(t, err)
		assert.Empty(t, listed)
		all, err := s.ListUsers(ctx, "foresvi", true)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
	t.Run("restore clears the timestamp", func(t *testing.T) {
		require.NoError(t, s.RestoreUser(ctx, uid))
		user, err := s.GetByID(ctx, uid)
		require.NoError(t, err)
		assert.Nil(t, user.DeletedAt)
	})
	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, s.DeleteUser(ctx, uuid.New()), errorvalues.ErrUserNotFound)
	})
}

func TestSetUserGroup(t *testing.T) {
	ctx := context.Background()
	s, users, groups := newUserAdminFixture()
	uid, err := users.Create(ctx, &entity.User{
		CompanyID: "foresvi", Name: "Ana Lopez", Email: "ana@foresvi.com", Role: entity.RoleUser,
	})
	require.NoError(t, err)
	groupID, err := groups.Create(ctx, &entity.Group{CompanyID: "foresvi", Name: "Equipo Norte"})
	require.NoError(t, err)

	t.Run("assigns the group", func(t *testing.T) {
		require.NoError(t, s.SetUserGroup(ctx, uid, &groupID))
		user, err := s.GetByID(ctx, uid)
		require.NoError(t, err)
		require.NotNil(t, user.GroupID)
		assert.Equal(t, groupID, *user.GroupID)
	})
	t.Run("unknown group", func(t *testing.T) {
		unknown := uuid.New()
		assert.ErrorIs(t, s.SetUserGroup(ctx, uid, &unknown), errorvalues.ErrGroupNotFound)
	})
	t.Run("nil clears the membership", func(t *testing.T) {
		require.NoError(t, s.SetUserGroup(ctx, uid, nil))
		user, err := s.GetByID(ctx, uid)
		require.NoError(t, err)
		assert.Nil(t, user.GroupID)
	})
}

func TestDeleteGroup(t *testing.T) {
	ctx := context.Background()
	s, users, groups := newUserAdminFixture()
	groupID, err := groups.Create(ctx, &entity.Group{CompanyID: "foresvi", Name: "Equipo Norte"})
	require.NoError(t, err)
	uid, err := users.Create(ctx, &entity.User{
		CompanyID: "foresvi", GroupID: &groupID, Name: "Ana Lopez", Email: "ana@foresvi.com", Role: entity.RoleUser,
	})
	require.NoError(t, err)

	t.Run("blocked while active members remain", func(t *testing.T) {
		count, err := s.DeleteGroup(ctx, groupID)
		assert.ErrorIs(t, err, errorvalues.ErrGroupHasMembers)
		assert.Equal(t, 1, count)
	})
	t.Run("soft-deleted members don't block", func(t *testing.T) {
		require.NoError(t, s.DeleteUser(ctx, uid))
		count, err := s.DeleteGroup(ctx, groupID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		listed, err := s.ListGroups(ctx, "foresvi")
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
	t.Run("unknown group", func(t *testing.T) {
		_, err := s.DeleteGroup(ctx, uuid.New())
		assert.ErrorIs(t, err, errorvalues.ErrGroupNotFound)
	})
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newUserAdminFixture()
	t.Run("created", func(t *testing.T) {
		group, err := s.CreateGroup(ctx, "foresvi", &service.CreateGroupRequest{Name: "Equipo Norte"})
		require.NoError(t, err)
		assert.Equal(t, "foresvi", group.CompanyID)
		assert.NotEqual(t, uuid.UUID{}, group.ID)
	})
	t.Run("name too short", func(t *testing.T) {
		_, err := s.CreateGroup(ctx, "foresvi", &service.CreateGroupRequest{Name: "x"})
		assert.ErrorIs(t, err, errorvalues.ErrValidation)
	})
}
