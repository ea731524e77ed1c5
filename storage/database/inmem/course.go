package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CheckSlugUniqueness(_ context.Context, orgID, slug string, excludedIDs ...string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, crs := range repo.db.courses {
		if crs.DeletedAt == nil && crs.OrganizationID == orgID && crs.Slug == slug && !isExcluded(crs.ID, excludedIDs) {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs.ID = uuid.NewString()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok && crs.DeletedAt == nil {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func compareCourses(a, b course.Course, field string) int {
	switch field {
	case "updated_at":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case "title":
		return compareStrings(a.Title, b.Title)
	case "slug":
		return compareStrings(a.Slug, b.Slug)
	case "category":
		return compareStrings(a.Category, b.Category)
	case "level":
		return compareStrings(string(a.Level), string(b.Level))
	case "price":
		return compareFloats(a.Price, b.Price)
	}
	return compareTimes(a.CreatedAt, b.CreatedAt)
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]course.Course, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if crs.DeletedAt != nil {
			continue
		}
		if filter.OrganizationID != "" && crs.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Search != "" && !(contains(crs.Title, filter.Search) || contains(crs.Description, filter.Search)) {
			continue
		}
		if filter.Category != "" && crs.Category != filter.Category {
			continue
		}
		if filter.Level != "" && crs.Level != filter.Level {
			continue
		}
		if filter.InstructorID != "" && crs.InstructorID != filter.InstructorID {
			continue
		}
		if filter.IsPublished != nil && crs.IsPublished != *filter.IsPublished {
			continue
		}
		courses = append(courses, *crs)
	}
	sortBy(courses, ordering, compareCourses)
	return core.Paginate(courses, page), len(courses), nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok || orig.DeletedAt != nil {
		return course.Course{}, course.ErrNotFound
	}
	crs.OrganizationID = orig.OrganizationID
	crs.CreatedAt = orig.CreatedAt
	crs.DeletedAt = nil
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) SoftDeleteCourse(_ context.Context, id string, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	crs, ok := repo.db.courses[id]
	if !ok || crs.DeletedAt != nil {
		return course.ErrNotFound
	}
	crs.DeletedAt = &at
	crs.UpdatedAt = at
	return nil
}
