package class

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edusphere/edusphere/core"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusDraft, StatusActive, StatusCompleted, StatusCancelled}

type Class struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	CourseID       string     `json:"course_id"`
	Name           string     `json:"name"`
	Code           string     `json:"code"`
	AcademicYear   string     `json:"academic_year,omitempty"`
	Semester       string     `json:"semester,omitempty"`
	Status         Status     `json:"status"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	MaxStudents    int        `json:"max_students,omitempty"`
	Schedule       string     `json:"schedule,omitempty"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
	DeletedAt      *time.Time `json:"-"`
}

type NewClass struct {
	CourseID     string     `json:"course_id" validate:"required,uuid"`
	Name         string     `json:"name" validate:"required,min=3,max=100"`
	Code         string     `json:"code" validate:"required,min=2,max=20"`
	AcademicYear string     `json:"academic_year" validate:"omitempty,max=20"`
	Semester     string     `json:"semester" validate:"omitempty,max=20"`
	Status       Status     `json:"status" validate:"omitempty,classstatus"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	MaxStudents  int        `json:"max_students" validate:"omitempty,min=1,max=1000"`
	Schedule     string     `json:"schedule" validate:"omitempty,max=1000"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.CourseID = core.CleanString(nc.CourseID)
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	nc.Semester = core.CleanString(nc.Semester)
	nc.Schedule = core.CleanString(nc.Schedule)
	if nc.Status == "" {
		nc.Status = StatusDraft
	}
	return validate.Struct(nc)
}

type UpdateClass struct {
	Name         *string    `json:"name" validate:"omitempty,min=3,max=100"`
	Code         *string    `json:"code" validate:"omitempty,min=2,max=20"`
	AcademicYear *string    `json:"academic_year" validate:"omitempty,max=20"`
	Semester     *string    `json:"semester" validate:"omitempty,max=20"`
	Status       *Status    `json:"status" validate:"omitempty,classstatus"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	MaxStudents  *int       `json:"max_students" validate:"omitempty,min=1,max=1000"`
	Schedule     *string    `json:"schedule" validate:"omitempty,max=1000"`

	orig Class
}

func (uc *UpdateClass) Validate(validate *validator.Validate, orig Class) error {
	for _, s := range []*string{uc.Name, uc.Code, uc.AcademicYear, uc.Semester, uc.Schedule} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	uc.orig = orig
	return validate.Struct(uc)
}

func (uc *UpdateClass) Apply(c *Class) {
	if uc.Name != nil {
		c.Name = *uc.Name
	}
	if uc.Code != nil {
		c.Code = *uc.Code
	}
	if uc.AcademicYear != nil {
		c.AcademicYear = *uc.AcademicYear
	}
	if uc.Semester != nil {
		c.Semester = *uc.Semester
	}
	if uc.Status != nil {
		c.Status = *uc.Status
	}
	if uc.StartDate != nil {
		c.StartDate = uc.StartDate
	}
	if uc.EndDate != nil {
		c.EndDate = uc.EndDate
	}
	if uc.MaxStudents != nil {
		c.MaxStudents = *uc.MaxStudents
	}
	if uc.Schedule != nil {
		c.Schedule = *uc.Schedule
	}
}

type QueryFilter struct {
	OrganizationID string `query:"-"`
	Search         string `query:"search"`
	Status         Status `query:"status"`
	CourseID       string `query:"course_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
	qf.CourseID = core.CleanString(qf.CourseID)
}
