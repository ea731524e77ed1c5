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
	"github.com/edusphere/edusphere/core/user"
)

const usersTable = "users"

type userRow struct {
	ID             string      `db:"id"`
	OrganizationID string      `db:"organization_id"`
	Email          string      `db:"email"`
	FirstName      string      `db:"first_name"`
	LastName       string      `db:"last_name"`
	Role           string      `db:"role"`
	Status         string      `db:"status"`
	Phone          null.String `db:"phone"`
	Address        null.String `db:"address"`
	AvatarURL      null.String `db:"avatar_url"`
	PasswordHash   []byte      `db:"password_hash"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	LastLoginAt    null.Time   `db:"last_login_at"`
	DeletedAt      null.Time   `db:"deleted_at"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		Email:          r.Email,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Role:           auth.Role(r.Role),
		Status:         user.Status(r.Status),
		Phone:          r.Phone.String,
		Address:        r.Address.String,
		AvatarURL:      r.AvatarURL.String,
		PasswordHash:   r.PasswordHash,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		LastLoginAt:    r.LastLoginAt.Ptr(),
		DeletedAt:      r.DeletedAt.Ptr(),
	}
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	where := sq.And{sq.Eq{"email": email, "deleted_at": nil}}
	if len(excludedIDs) > 0 {
		where = append(where, sq.NotEq{"id": excludedIDs})
	}
	exists, err := repo.db.exists(ctx, usersTable, where)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	q := psql.Insert(usersTable).SetMap(map[string]interface{}{
		"id":              usr.ID,
		"organization_id": usr.OrganizationID,
		"email":           usr.Email,
		"first_name":      usr.FirstName,
		"last_name":       usr.LastName,
		"role":            string(usr.Role),
		"status":          string(usr.Status),
		"phone":           nullString(usr.Phone),
		"address":         nullString(usr.Address),
		"avatar_url":      nullString(usr.AvatarURL),
		"password_hash":   usr.PasswordHash,
		"created_at":      usr.CreatedAt.UTC(),
		"updated_at":      usr.UpdatedAt.UTC(),
		"last_login_at":   null.TimeFromPtr(usr.LastLoginAt),
	})
	if _, err := repo.db.exec(ctx, q); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	where := sq.Eq{"deleted_at": nil}
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		where["id"] = filter.ID
	case filter.Email != "":
		where["email"] = filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.get(ctx, &row, psql.Select("*").From(usersTable).Where(where)); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.user(), nil
}

func (repo *userRepository) where(filter user.QueryFilter) sq.And {
	where := sq.And{sq.Eq{"deleted_at": nil}}
	if filter.OrganizationID != "" {
		where = append(where, sq.Eq{"organization_id": filter.OrganizationID})
	}
	if filter.Search != "" {
		where = append(where, ilike(filter.Search, "first_name", "last_name", "email"))
	}
	if filter.Role != "" {
		where = append(where, sq.Eq{"role": string(filter.Role)})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": string(filter.Status)})
	}
	return where
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]user.User, int, error) {
	var rows []userRow
	total, err := repo.db.page(ctx, &rows, usersTable, repo.where(filter), ordering, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, total, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, filter user.QueryFilter) (int, error) {
	var count int
	if err := repo.db.get(ctx, &count, psql.Select("COUNT(*)").From(usersTable).Where(repo.where(filter))); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return count, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := psql.Update(usersTable).SetMap(map[string]interface{}{
		"email":         usr.Email,
		"first_name":    usr.FirstName,
		"last_name":     usr.LastName,
		"role":          string(usr.Role),
		"status":        string(usr.Status),
		"phone":         nullString(usr.Phone),
		"address":       nullString(usr.Address),
		"avatar_url":    nullString(usr.AvatarURL),
		"password_hash": usr.PasswordHash,
		"updated_at":    usr.UpdatedAt.UTC(),
		"last_login_at": null.TimeFromPtr(usr.LastLoginAt),
	}).Where(sq.Eq{"id": usr.ID, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) SoftDeleteUser(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return user.ErrNotFound
	}
	q := psql.Update(usersTable).
		Set("deleted_at", at.UTC()).
		Set("updated_at", at.UTC()).
		Set("status", string(user.StatusDeleted)).
		Where(sq.Eq{"id": id, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
