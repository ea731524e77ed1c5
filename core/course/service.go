package course

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/user"
)

var (
	ErrNotFound   = core.NewNotFoundError("course not found")
	ErrSlugExists = errors.New("a course with this slug already exists")
)

type (
	Repository interface {
		// CheckSlugUniqueness checks `slug` among the live courses of organization `orgID`.
		CheckSlugUniqueness(ctx context.Context, orgID, slug string, excludedIDs ...string) error
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// GetCourse returns ErrNotFound for unknown and soft deleted courses.
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses returns one page of matches plus their total number.
		// QueryFilter.Search does a case-insensitive match on Title or Description.
		QueryCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Course, int, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		SoftDeleteCourse(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
	}
)

var OrderingFields = []string{"created_at", "updated_at", "title", "slug", "category", "level", "price"}

func NewService(repo Repository, usrSvc *user.Service) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

// checkInstructor ensures `id` is a teacher or admin of organization `orgID`.
func (svc *Service) checkInstructor(ctx context.Context, orgID, id string) error {
	invalid := core.NewValidationError(nil, core.FieldError{Field: "instructor_id", Error: "invalid instructor"})
	usr, err := svc.usrSvc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return invalid
		}
		return errors.Wrap(err, "finding instructor")
	}
	if usr.OrganizationID != orgID || !usr.Role.In([]auth.Role{auth.RoleTeacher, auth.RoleAdmin}) {
		return invalid
	}
	return nil
}

// Create creates a course in organization `orgID`.
// A teacher creating a course without an explicit instructor becomes its instructor.
func (svc *Service) Create(ctx context.Context, nc NewCourse, orgID string, creator auth.Principal) (Course, error) {
	if nc.Slug == "" {
		nc.Slug = core.Slugify(nc.Title)
		if len(nc.Slug) < 3 {
			nc.Slug = "course-" + uuid.NewString()[:8]
		}
	}
	if err := svc.repo.CheckSlugUniqueness(ctx, orgID, nc.Slug); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return Course{}, err
	}
	if nc.InstructorID == "" && creator.Role == auth.RoleTeacher {
		nc.InstructorID = creator.UserID
	} else if nc.InstructorID != "" {
		if err := svc.checkInstructor(ctx, orgID, nc.InstructorID); err != nil {
			return Course{}, err
		}
	}

	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		OrganizationID: orgID,
		InstructorID:   nc.InstructorID,
		Title:          nc.Title,
		Slug:           nc.Slug,
		Description:    nc.Description,
		Category:       nc.Category,
		Level:          nc.Level,
		Language:       nc.Language,
		DurationHours:  nc.DurationHours,
		Price:          nc.Price,
		ThumbnailURL:   nc.ThumbnailURL,
		IsPublished:    nc.IsPublished,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Course, int, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	return svc.repo.QueryCourses(ctx, filter, ordering, page)
}

func (svc *Service) Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	if uc.InstructorID != nil && *uc.InstructorID != "" && *uc.InstructorID != c.InstructorID {
		if err := svc.checkInstructor(ctx, c.OrganizationID, *uc.InstructorID); err != nil {
			return Course{}, err
		}
	}
	uc.Apply(&c)
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDeleteCourse(ctx, id, time.Now().UTC())
}
