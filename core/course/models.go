package course

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

var AllLevels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

type Course struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	InstructorID   string     `json:"instructor_id,omitempty"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	Level          Level      `json:"level,omitempty"`
	Language       string     `json:"language,omitempty"`
	DurationHours  int        `json:"duration_hours,omitempty"`
	Price          float64    `json:"price"`
	ThumbnailURL   string     `json:"thumbnail_url,omitempty"`
	IsPublished    bool       `json:"is_published"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
	DeletedAt      *time.Time `json:"-"`
}

// CanEdit reports whether p may modify the course, tenant checks aside.
func (c Course) CanEdit(p auth.Principal) bool {
	return p.Role.IsAdmin() || (c.InstructorID != "" && c.InstructorID == p.UserID)
}

type NewCourse struct {
	Title         string  `json:"title" validate:"required,min=3,max=200"`
	Slug          string  `json:"slug" validate:"omitempty,min=3,max=100,slug"`
	Description   string  `json:"description" validate:"omitempty,max=5000"`
	Category      string  `json:"category" validate:"omitempty,max=50"`
	Level         Level   `json:"level" validate:"omitempty,courselevel"`
	Language      string  `json:"language" validate:"omitempty,max=16"`
	DurationHours int     `json:"duration_hours" validate:"omitempty,min=1,max=10000"`
	Price         float64 `json:"price" validate:"omitempty,min=0"`
	ThumbnailURL  string  `json:"thumbnail_url" validate:"omitempty,url,max=254"`
	InstructorID  string  `json:"instructor_id" validate:"omitempty,uuid"`
	IsPublished   bool    `json:"is_published"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Slug = core.CleanString(nc.Slug, true /* lower */)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category, true /* lower */)
	nc.Language = core.CleanString(nc.Language, true /* lower */)
	nc.ThumbnailURL = core.CleanString(nc.ThumbnailURL)
	nc.InstructorID = core.CleanString(nc.InstructorID)
	return validate.Struct(nc)
}

type UpdateCourse struct {
	Title         *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	Category      *string  `json:"category" validate:"omitempty,max=50"`
	Level         *Level   `json:"level" validate:"omitempty,courselevel"`
	Language      *string  `json:"language" validate:"omitempty,max=16"`
	DurationHours *int     `json:"duration_hours" validate:"omitempty,min=1,max=10000"`
	Price         *float64 `json:"price" validate:"omitempty,min=0"`
	ThumbnailURL  *string  `json:"thumbnail_url" validate:"omitempty,url,max=254"`
	InstructorID  *string  `json:"instructor_id" validate:"omitempty,uuid"`
	IsPublished   *bool    `json:"is_published"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uc.Title, uc.Description, uc.ThumbnailURL, uc.InstructorID} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	for _, s := range []*string{uc.Category, uc.Language} {
		if s != nil {
			*s = core.CleanString(*s, true /* lower */)
		}
	}
	return validate.Struct(uc)
}

func (uc *UpdateCourse) Apply(c *Course) {
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Category != nil {
		c.Category = *uc.Category
	}
	if uc.Level != nil {
		c.Level = *uc.Level
	}
	if uc.Language != nil {
		c.Language = *uc.Language
	}
	if uc.DurationHours != nil {
		c.DurationHours = *uc.DurationHours
	}
	if uc.Price != nil {
		c.Price = *uc.Price
	}
	if uc.ThumbnailURL != nil {
		c.ThumbnailURL = *uc.ThumbnailURL
	}
	if uc.InstructorID != nil {
		c.InstructorID = *uc.InstructorID
	}
	if uc.IsPublished != nil {
		c.IsPublished = *uc.IsPublished
	}
}

type QueryFilter struct {
	OrganizationID string `query:"-"`
	Search         string `query:"search"`
	Category       string `query:"category"`
	Level          Level  `query:"level"`
	InstructorID   string `query:"instructor_id"`
	Published      string `query:"is_published"`

	IsPublished *bool `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Level = Level(core.CleanString(string(qf.Level), true /* lower */))
	qf.InstructorID = core.CleanString(qf.InstructorID)
	if b, err := strconv.ParseBool(core.CleanString(qf.Published)); err == nil {
		qf.IsPublished = &b
	}
}
