package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls.ID = uuid.NewString()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClass(_ context.Context, id string) (class.Class, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classes[id]; ok && cls.DeletedAt == nil {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func compareClasses(a, b class.Class, field string) int {
	switch field {
	case "updated_at":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case "name":
		return compareStrings(a.Name, b.Name)
	case "code":
		return compareStrings(a.Code, b.Code)
	case "status":
		return compareStrings(string(a.Status), string(b.Status))
	case "start_date":
		var sa, sb time.Time
		if a.StartDate != nil {
			sa = *a.StartDate
		}
		if b.StartDate != nil {
			sb = *b.StartDate
		}
		return compareTimes(sa, sb)
	}
	return compareTimes(a.CreatedAt, b.CreatedAt)
}

func (repo *classRepository) QueryClasses(_ context.Context, filter class.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]class.Class, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	classes := make([]class.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if cls.DeletedAt != nil {
			continue
		}
		if filter.OrganizationID != "" && cls.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Search != "" && !(contains(cls.Name, filter.Search) || contains(cls.Code, filter.Search)) {
			continue
		}
		if filter.Status != "" && cls.Status != filter.Status {
			continue
		}
		if filter.CourseID != "" && cls.CourseID != filter.CourseID {
			continue
		}
		classes = append(classes, *cls)
	}
	sortBy(classes, ordering, compareClasses)
	return core.Paginate(classes, page), len(classes), nil
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok || orig.DeletedAt != nil {
		return class.Class{}, class.ErrNotFound
	}
	cls.OrganizationID = orig.OrganizationID
	cls.CourseID = orig.CourseID
	cls.CreatedAt = orig.CreatedAt
	cls.DeletedAt = nil
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) SoftDeleteClass(_ context.Context, id string, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls, ok := repo.db.classes[id]
	if !ok || cls.DeletedAt != nil {
		return class.ErrNotFound
	}
	cls.DeletedAt = &at
	cls.UpdatedAt = at
	return nil
}
