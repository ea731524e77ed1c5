package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func isExcluded(id string, excludedIDs []string) bool {
	for _, excl := range excludedIDs {
		if excl == id {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.DeletedAt == nil && usr.Email == email && !isExcluded(usr.ID, excludedIDs) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.NewString()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.DeletedAt != nil {
			continue
		}
		if (filter.ID != "" && usr.ID == filter.ID) || (filter.ID == "" && filter.Email != "" && usr.Email == filter.Email) {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) filter(filter user.QueryFilter) []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if usr.DeletedAt != nil {
			continue
		}
		if filter.OrganizationID != "" && usr.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Search != "" && !(contains(usr.FirstName, filter.Search) || contains(usr.LastName, filter.Search) || contains(usr.Email, filter.Search)) {
			continue
		}
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.Status != "" && usr.Status != filter.Status {
			continue
		}
		users = append(users, *usr)
	}
	return users
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "updated_at":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case "email":
		return compareStrings(a.Email, b.Email)
	case "first_name":
		return compareStrings(a.FirstName, b.FirstName)
	case "last_name":
		return compareStrings(a.LastName, b.LastName)
	case "role":
		return compareStrings(string(a.Role), string(b.Role))
	case "status":
		return compareStrings(string(a.Status), string(b.Status))
	}
	return compareTimes(a.CreatedAt, b.CreatedAt)
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]user.User, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := repo.filter(filter)
	sortBy(users, ordering, compareUsers)
	return core.Paginate(users, page), len(users), nil
}

func (repo *userRepository) CountUsers(_ context.Context, filter user.QueryFilter) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok || orig.DeletedAt != nil {
		return user.User{}, user.ErrNotFound
	}
	usr.CreatedAt = orig.CreatedAt
	usr.DeletedAt = nil
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) SoftDeleteUser(_ context.Context, id string, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok || usr.DeletedAt != nil {
		return user.ErrNotFound
	}
	usr.DeletedAt = &at
	usr.Status = user.StatusDeleted
	usr.UpdatedAt = at
	return nil
}
