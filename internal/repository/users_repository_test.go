package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

var userColumns = []string{
	"id", "company_id", "group_id", "name", "email", "password_hash", "role", "deleted_at",
}

func testUser() *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		CompanyID:    "foresvi",
		Name:         "Ana Lopez",
		Email:        "ana@foresvi.com",
		PasswordHash: "test_hash",
		Role:         entity.RoleUser,
	}
}

func userRow(u *entity.User) *pgxmock.Rows {
	return pgxmock.NewRows(userColumns).AddRow(
		u.ID, u.CompanyID, u.GroupID, u.Name, u.Email, u.PasswordHash, u.Role, u.DeletedAt,
	)
}

func TestCreateUser(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewUsersRepoWithConn(conn)
	user := testUser()
	query := `INSERT INTO users \(company_id, group_id, name, email, password_hash, role\)`
	args := []any{user.CompanyID, user.GroupID, user.Name, user.Email, user.PasswordHash, user.Role}
	t.Run("created with generated id", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs(args...).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(user.ID))
		id, err := repo.Create(ctx, user)
		assert.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})
	t.Run("duplicate email", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs(args...).WillReturnError(&pgconn.PgError{
			Code: "23505",
		})
		_, err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, errorvalues.ErrUserExists)
	})
	t.Run("db error", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs(args...).WillReturnError(errors.New("db error"))
		_, err := repo.Create(ctx, user)
		assert.Error(t, err)
	})
}

func TestFindUserByEmail(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewUsersRepoWithConn(conn)
	user := testUser()
	query := `SELECT .+ FROM users WHERE email = \$1;`
	t.Run("found", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs(user.Email).WillReturnRows(userRow(user))
		result, err := repo.FindByEmail(ctx, user.Email)
		assert.NoError(t, err)
		assert.Equal(t, *user, *result)
	})
	t.Run("not found", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs(user.Email).WillReturnError(pgx.ErrNoRows)
		_, err := repo.FindByEmail(ctx, user.Email)
		assert.ErrorIs(t, err, errorvalues.ErrUserNotFound)
	})
}

func TestFindUserByID(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewUsersRepoWithConn(conn)
	user := testUser()
	query := `SELECT .+ FROM users WHERE id = \$1;`
	t.Run("found", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs(user.ID).WillReturnRows(userRow(user))
		result, err := repo.FindByID(ctx, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, *user, *result)
	})
	t.Run("not found", func(t *testing.T) {
		conn.ExpectQuery(query).WithArgs(user.ID).WillReturnError(pgx.ErrNoRows)
		_, err := repo.FindByID(ctx, user.ID)
		assert.ErrorIs(t, err, errorvalues.ErrUserNotFound)
	})
}

func TestListUsersByCompany(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewUsersRepoWithConn(conn)
	user := testUser()
	t.Run("default listing filters deleted", func(t *testing.T) {
		conn.ExpectQuery(`SELECT .+ FROM users WHERE company_id = \$1 AND deleted_at IS NULL ORDER BY name;`).
			WithArgs(user.CompanyID).
			WillReturnRows(userRow(user))
		users, err := repo.ListByCompany(ctx, user.CompanyID, false)
		assert.NoError(t, err)
		assert.Len(t, users, 1)
		assert.Equal(t, *user, *users[0])
	})
	t.Run("include deleted", func(t *testing.T) {
		conn.ExpectQuery(`SELECT .+ FROM users WHERE company_id = \$1 ORDER BY name;`).
			WithArgs(user.CompanyID).
			WillReturnRows(userRow(user))
		users, err := repo.ListByCompany(ctx, user.CompanyID, true)
		assert.NoError(t, err)
		assert.Len(t, users, 1)
	})
	t.Run("db error", func(t *testing.T) {
		conn.ExpectQuery(`SELECT .+ FROM users WHERE company_id = \$1`).
			WithArgs(user.CompanyID).
			WillReturnError(errors.New("db error"))
		_, err := repo.ListByCompany(ctx, user.CompanyID, false)
		assert.Error(t, err)
	})
}

func TestSetUserDeleted(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewUsersRepoWithConn(conn)
	id := uuid.New()
	t.Run("deleted", func(t *testing.T) {
		conn.ExpectExec(regexp.QuoteMeta(`UPDATE users SET deleted_at = NOW() WHERE id = $1;`)).
			WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.SetDeleted(ctx, id, true))
	})
	t.Run("restored", func(t *testing.T) {
		conn.ExpectExec(regexp.QuoteMeta(`UPDATE users SET deleted_at = NULL WHERE id = $1;`)).
			WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.SetDeleted(ctx, id, false))
	})
	t.Run("not found", func(t *testing.T) {
		conn.ExpectExec(regexp.QuoteMeta(`UPDATE users SET deleted_at = NOW() WHERE id = $1;`)).
			WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		assert.ErrorIs(t, repo.SetDeleted(ctx, id, true), errorvalues.ErrUserNotFound)
	})
}

func TestSetUserGroup(t *testing.T) {
	conn, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	repo := repository.NewUsersRepoWithConn(conn)
	uid := uuid.New()
	gid := uuid.New()
	query := regexp.QuoteMeta(`UPDATE users SET group_id = $1 WHERE id = $2;`)
	t.Run("assigned", func(t *testing.T) {
		conn.ExpectExec(query).WithArgs(&gid, uid).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.SetGroup(ctx, uid, &gid))
	})
	t.Run("cleared", func(t *testing.T) {
		conn.ExpectExec(query).WithArgs((*uuid.UUID)(nil), uid).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.SetGroup(ctx, uid, nil))
	})
	t.Run("not found", func(t *testing.T) {
		conn.ExpectExec(query).WithArgs(&gid, uid).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		assert.ErrorIs(t, repo.SetGroup(ctx, uid, &gid), errorvalues.ErrUserNotFound)
	})
}
