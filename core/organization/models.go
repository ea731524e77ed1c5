package organization

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/user"
)

type Type string

const (
	TypePreschool      Type = "preschool"
	TypeSchool         Type = "school"
	TypeUniversity     Type = "university"
	TypeTrainingCenter Type = "training_center"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

var (
	AllTypes    = []Type{TypePreschool, TypeSchool, TypeUniversity, TypeTrainingCenter}
	AllStatuses = []Status{StatusActive, StatusInactive, StatusSuspended}
)

type Organization struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Type      Type       `json:"type"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	Website   string     `json:"website,omitempty"`
	LogoURL   string     `json:"logo_url,omitempty"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
	DeletedAt *time.Time `json:"-"`
}

const DefaultOrganizationName = "Default Organization"

// TenantID is the tenant owning the organization: itself.
func (o Organization) TenantID() string { return o.ID }

type NewOrganization struct {
	Name    string `json:"name" validate:"required,min=3,max=100"`
	Slug    string `json:"slug" validate:"omitempty,min=3,max=100,slug"`
	Type    Type   `json:"type" validate:"required,orgtype"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"omitempty,min=8,max=20"`
	Address string `json:"address" validate:"omitempty,min=5,max=200"`
	Website string `json:"website" validate:"omitempty,url"`
	LogoURL string `json:"logo_url" validate:"omitempty,url"`
}

func (no *NewOrganization) Validate(validate *validator.Validate) error {
	no.Name = core.CleanString(no.Name)
	no.Slug = core.CleanString(no.Slug, true /* lower */)
	no.Email = core.CleanString(no.Email, true /* lower */)
	no.Phone = core.CleanString(no.Phone)
	no.Address = core.CleanString(no.Address)
	no.Website = core.CleanString(no.Website)
	no.LogoURL = core.CleanString(no.LogoURL)
	return validate.Struct(no)
}

type UpdateOrganization struct {
	Name    *string `json:"name" validate:"omitempty,min=3,max=100"`
	Type    *Type   `json:"type" validate:"omitempty,orgtype"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,min=8,max=20"`
	Address *string `json:"address" validate:"omitempty,min=5,max=200"`
	Website *string `json:"website" validate:"omitempty,url"`
	LogoURL *string `json:"logo_url" validate:"omitempty,url"`
	Status  *Status `json:"status" validate:"omitempty,orgstatus"`
}

func (uo *UpdateOrganization) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uo.Name, uo.Email, uo.Phone, uo.Address, uo.Website, uo.LogoURL} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(uo)
}

func (uo *UpdateOrganization) Apply(org *Organization) {
	if uo.Name != nil {
		org.Name = *uo.Name
	}
	if uo.Type != nil {
		org.Type = *uo.Type
	}
	if uo.Email != nil {
		org.Email = *uo.Email
	}
	if uo.Phone != nil {
		org.Phone = *uo.Phone
	}
	if uo.Address != nil {
		org.Address = *uo.Address
	}
	if uo.Website != nil {
		org.Website = *uo.Website
	}
	if uo.LogoURL != nil {
		org.LogoURL = *uo.LogoURL
	}
	if uo.Status != nil {
		org.Status = *uo.Status
	}
}

// Registration signs up a new organization together with its first admin.
type Registration struct {
	OrganizationName string `json:"organization_name" validate:"omitempty,min=3,max=100"`
	OrganizationType Type   `json:"organization_type" validate:"omitempty,orgtype"`
	user.NewUser
}

func (r *Registration) Validate(validate *validator.Validate) error {
	r.OrganizationName = core.CleanString(r.OrganizationName)
	if r.OrganizationName == "" {
		r.OrganizationName = DefaultOrganizationName
	}
	if r.OrganizationType == "" {
		r.OrganizationType = TypeSchool
	}
	r.Role = auth.RoleAdmin
	r.OrganizationID = ""
	r.NewUser.Clean()
	return validate.Struct(r)
}

type GetFilter struct {
	ID   string
	Slug string
}

type QueryFilter struct {
	Search string `query:"search"`
	Type   Type   `query:"type"`
	Status Status `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Type = Type(core.CleanString(string(qf.Type), true /* lower */))
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
}

// Stats summarizes an organization for its admin dashboard.
type Stats struct {
	Users    int `json:"users"`
	Courses  int `json:"courses"`
	Classes  int `json:"classes"`
	Students int `json:"students"`
}
