package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/organization"
)

const organizationsTable = "organizations"

type organizationRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Slug      string      `db:"slug"`
	Type      string      `db:"type"`
	Email     null.String `db:"email"`
	Phone     null.String `db:"phone"`
	Address   null.String `db:"address"`
	Website   null.String `db:"website"`
	LogoURL   null.String `db:"logo_url"`
	Status    string      `db:"status"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
	DeletedAt null.Time   `db:"deleted_at"`
}

func (r organizationRow) organization() organization.Organization {
	return organization.Organization{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		Type:      organization.Type(r.Type),
		Email:     r.Email.String,
		Phone:     r.Phone.String,
		Address:   r.Address.String,
		Website:   r.Website.String,
		LogoURL:   r.LogoURL.String,
		Status:    organization.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		DeletedAt: r.DeletedAt.Ptr(),
	}
}

type organizationRepository struct {
	db *DB
}

var _ organization.Repository = (*organizationRepository)(nil) // interface compliance check

func NewOrganizationRepository(db *DB) *organizationRepository {
	return &organizationRepository{db: db}
}

func (repo *organizationRepository) CheckSlugUniqueness(ctx context.Context, slug string, excludedIDs ...string) error {
	where := sq.And{sq.Eq{"slug": slug, "deleted_at": nil}}
	if len(excludedIDs) > 0 {
		where = append(where, sq.NotEq{"id": excludedIDs})
	}
	exists, err := repo.db.exists(ctx, organizationsTable, where)
	if err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return organization.ErrSlugExists
	}
	return nil
}

func (repo *organizationRepository) values(org organization.Organization) map[string]interface{} {
	return map[string]interface{}{
		"name":       org.Name,
		"type":       string(org.Type),
		"email":      nullString(org.Email),
		"phone":      nullString(org.Phone),
		"address":    nullString(org.Address),
		"website":    nullString(org.Website),
		"logo_url":   nullString(org.LogoURL),
		"status":     string(org.Status),
		"updated_at": org.UpdatedAt.UTC(),
	}
}

func (repo *organizationRepository) CreateOrganization(ctx context.Context, org organization.Organization) (organization.Organization, error) {
	org.ID = uuid.NewString()
	vals := repo.values(org)
	vals["id"] = org.ID
	vals["slug"] = org.Slug
	vals["created_at"] = org.CreatedAt.UTC()

	if _, err := repo.db.exec(ctx, psql.Insert(organizationsTable).SetMap(vals)); err != nil {
		return organization.Organization{}, errors.Wrap(err, "inserting organization")
	}
	return org, nil
}

func (repo *organizationRepository) GetOrganization(ctx context.Context, filter organization.GetFilter) (organization.Organization, error) {
	where := sq.Eq{"deleted_at": nil}
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return organization.Organization{}, organization.ErrNotFound
		}
		where["id"] = filter.ID
	case filter.Slug != "":
		where["slug"] = filter.Slug
	default:
		return organization.Organization{}, organization.ErrNotFound
	}

	var row organizationRow
	if err := repo.db.get(ctx, &row, psql.Select("*").From(organizationsTable).Where(where)); err != nil {
		return organization.Organization{}, trapNoRowsErr(err, organization.ErrNotFound, "finding organization")
	}
	return row.organization(), nil
}

func (repo *organizationRepository) QueryOrganizations(ctx context.Context, filter organization.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]organization.Organization, int, error) {
	where := sq.And{sq.Eq{"deleted_at": nil}}
	if filter.Search != "" {
		where = append(where, ilike(filter.Search, "name", "slug"))
	}
	if filter.Type != "" {
		where = append(where, sq.Eq{"type": string(filter.Type)})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": string(filter.Status)})
	}

	var rows []organizationRow
	total, err := repo.db.page(ctx, &rows, organizationsTable, where, ordering, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying organizations")
	}
	orgs := make([]organization.Organization, 0, len(rows))
	for _, r := range rows {
		orgs = append(orgs, r.organization())
	}
	return orgs, total, nil
}

func (repo *organizationRepository) UpdateOrganization(ctx context.Context, org organization.Organization) (organization.Organization, error) {
	q := psql.Update(organizationsTable).
		SetMap(repo.values(org)).
		Where(sq.Eq{"id": org.ID, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return organization.Organization{}, errors.Wrap(err, "updating organization")
	}
	if n == 0 {
		return organization.Organization{}, organization.ErrNotFound
	}
	return org, nil
}

func (repo *organizationRepository) SoftDeleteOrganization(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return organization.ErrNotFound
	}
	q := psql.Update(organizationsTable).
		Set("deleted_at", at.UTC()).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"id": id, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return errors.Wrap(err, "deleting organization")
	}
	if n == 0 {
		return organization.ErrNotFound
	}
	return nil
}

const statsQuery = `
SELECT
    (SELECT COUNT(*) FROM users WHERE organization_id = $1 AND deleted_at IS NULL)                  AS users,
    (SELECT COUNT(*) FROM users WHERE organization_id = $1 AND role = $2 AND deleted_at IS NULL)    AS students,
    (SELECT COUNT(*) FROM courses WHERE organization_id = $1 AND deleted_at IS NULL)                AS courses,
    (SELECT COUNT(*) FROM classes WHERE organization_id = $1 AND deleted_at IS NULL)                AS classes`

func (repo *organizationRepository) Stats(ctx context.Context, id string) (organization.Stats, error) {
	var row struct {
		Users    int `db:"users"`
		Courses  int `db:"courses"`
		Classes  int `db:"classes"`
		Students int `db:"students"`
	}
	if err := repo.db.get(ctx, &row, sq.Expr(statsQuery, id, string(auth.RoleStudent))); err != nil {
		return organization.Stats{}, errors.Wrap(err, "counting organization stats")
	}
	return organization.Stats(row), nil
}
