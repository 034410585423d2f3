package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/pkg/cleanup"
	"github.com/foresvi/tracker/pkg/entity"
)

type GroupsRepository struct {
	conn PgConnection
}

func NewGroupsRepo(cfg DBConfig) *GroupsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for groupsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for groupsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing groups pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &GroupsRepository{
		conn: pool,
	}
}

func NewGroupsRepoWithConn(conn PgConnection) *GroupsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for groupsRepo: " + err.Error())
	}
	return &GroupsRepository{
		conn: conn,
	}
}

func (gr *GroupsRepository) Create(ctx context.Context, group *entity.Group) (uuid.UUID, error) {
	var id uuid.UUID
	row := gr.conn.QueryRow(ctx,
		`INSERT INTO groups (company_id, name) VALUES ($1, $2) RETURNING id;`,
		group.CompanyID, group.Name,
	)
	if err := row.Scan(&id); err != nil {
		return uuid.UUID{}, errors.New("creating group db error: " + err.Error())
	}
	return id, nil
}

func (gr *GroupsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Group, error) {
	var g entity.Group
	row := gr.conn.QueryRow(ctx, `SELECT id, company_id, name FROM groups WHERE id = $1;`, id)
	if err := row.Scan(&g.ID, &g.CompanyID, &g.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrGroupNotFound
		}
		return nil, errors.New("getting group by id error: " + err.Error())
	}
	return &g, nil
}

func (gr *GroupsRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.Group, error) {
	rows, err := gr.conn.Query(ctx, `SELECT id, company_id, name FROM groups WHERE company_id = $1 ORDER BY name;`, companyID)
	if err != nil {
		return nil, errors.New("listing groups error: " + err.Error())
	}
	defer rows.Close()
	groups := make([]*entity.Group, 0)
	for rows.Next() {
		var g entity.Group
		if err := rows.Scan(&g.ID, &g.CompanyID, &g.Name); err != nil {
			return nil, errors.New("scanning group row error: " + err.Error())
		}
		groups = append(groups, &g)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected error after scanning: " + rows.Err().Error())
	}
	return groups, nil
}

func (gr *GroupsRepository) CountActiveMembers(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	row := gr.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE group_id = $1 AND deleted_at IS NULL;`, id)
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("counting group members error: " + err.Error())
	}
	return count, nil
}

func (gr *GroupsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := gr.conn.Exec(ctx, `DELETE FROM groups WHERE id = $1;`, id)
	if err != nil {
		return errors.New("deleting group error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrGroupNotFound
	}
	return nil
}
