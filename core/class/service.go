package class

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/course"
)

var ErrNotFound = core.NewNotFoundError("class not found")

type (
	Repository interface {
		CreateClass(ctx context.Context, c Class) (Class, error)
		// GetClass returns ErrNotFound for unknown and soft deleted classes.
		GetClass(ctx context.Context, id string) (Class, error)
		// QueryClasses returns one page of matches plus their total number.
		// QueryFilter.Search does a case-insensitive match on Name or Code.
		QueryClasses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Class, int, error)
		UpdateClass(ctx context.Context, c Class) (Class, error)
		SoftDeleteClass(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo      Repository
		courseSvc *course.Service
	}
)

var OrderingFields = []string{"created_at", "updated_at", "name", "code", "status", "start_date"}

func NewService(repo Repository, courseSvc *course.Service) *Service {
	return &Service{repo: repo, courseSvc: courseSvc}
}

// Create creates a class of a course owned by organization `orgID`.
func (svc *Service) Create(ctx context.Context, nc NewClass, orgID string) (Class, error) {
	crs, err := svc.courseSvc.GetByID(ctx, nc.CourseID)
	if err != nil && !core.IsNotFound(err) {
		return Class{}, errors.Wrap(err, "finding course")
	}
	if err != nil || crs.OrganizationID != orgID {
		return Class{}, core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "course not found"})
	}

	now := time.Now().UTC()
	return svc.repo.CreateClass(ctx, Class{
		OrganizationID: orgID,
		CourseID:       crs.ID,
		Name:           nc.Name,
		Code:           nc.Code,
		AcademicYear:   nc.AcademicYear,
		Semester:       nc.Semester,
		Status:         nc.Status,
		StartDate:      nc.StartDate,
		EndDate:        nc.EndDate,
		MaxStudents:    nc.MaxStudents,
		Schedule:       nc.Schedule,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Class, int, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	return svc.repo.QueryClasses(ctx, filter, ordering, page)
}

func (svc *Service) Update(ctx context.Context, c Class, uc UpdateClass) (Class, error) {
	uc.Apply(&c)
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDeleteClass(ctx, id, time.Now().UTC())
}
