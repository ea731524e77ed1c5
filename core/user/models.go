package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

var AllStatuses = []Status{StatusActive, StatusInactive, StatusSuspended, StatusDeleted}

type User struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           auth.Role  `json:"role"`
	Status         Status     `json:"status"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	PasswordHash   []byte     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`    // UTC
	UpdatedAt      time.Time  `json:"updated_at"`    // UTC
	LastLoginAt    *time.Time `json:"last_login_at"` // UTC
	DeletedAt      *time.Time `json:"-"`
}

func (u User) Name() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u User) IsActive() bool {
	return u.Status == StatusActive && u.DeletedAt == nil
}

func (u User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID, OrganizationID: u.OrganizationID, Role: u.Role}
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	OrganizationID string    `json:"organization_id" validate:"omitempty,uuid"`
	Email          string    `json:"email" validate:"required,email,max=254"`
	FirstName      string    `json:"first_name" validate:"required,min=2,max=50"`
	LastName       string    `json:"last_name" validate:"required,min=2,max=50"`
	Role           auth.Role `json:"role" validate:"required,role"`
	Phone          string    `json:"phone" validate:"omitempty,min=8,max=20"`
	Address        string    `json:"address" validate:"omitempty,max=200"`
	AvatarURL      string    `json:"avatar_url" validate:"omitempty,url"`
	Password       string    `json:"password" validate:"required,max=100"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

func (nu *NewUser) Clean() {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Address = core.CleanString(nu.Address)
	nu.AvatarURL = core.CleanString(nu.AvatarURL)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Nil fields are left untouched.
type UpdateUser struct {
	FirstName *string    `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName  *string    `json:"last_name" validate:"omitempty,min=2,max=50"`
	Phone     *string    `json:"phone" validate:"omitempty,max=20"`
	Address   *string    `json:"address" validate:"omitempty,max=200"`
	AvatarURL *string    `json:"avatar_url" validate:"omitempty,max=254"`
	Role      *auth.Role `json:"role" validate:"omitempty,role"`
	Status    *Status    `json:"status" validate:"omitempty,userstatus"`
	Password  string     `json:"password" validate:"omitempty,max=100"`

	orig User
}

// ChangesAccess reports whether the update touches fields only admins may change.
func (uu *UpdateUser) ChangesAccess() bool {
	return uu.Role != nil || uu.Status != nil
}

func (uu *UpdateUser) Validate(validate *validator.Validate, origUsr User) error {
	for _, s := range []*string{uu.FirstName, uu.LastName, uu.Phone, uu.Address, uu.AvatarURL} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	uu.orig = origUsr
	return validate.Struct(uu)
}

// Apply copies the set fields onto usr.
func (uu *UpdateUser) Apply(usr *User) error {
	if uu.FirstName != nil {
		usr.FirstName = *uu.FirstName
	}
	if uu.LastName != nil {
		usr.LastName = *uu.LastName
	}
	if uu.Phone != nil {
		usr.Phone = *uu.Phone
	}
	if uu.Address != nil {
		usr.Address = *uu.Address
	}
	if uu.AvatarURL != nil {
		usr.AvatarURL = *uu.AvatarURL
	}
	if uu.Role != nil {
		usr.Role = *uu.Role
	}
	if uu.Status != nil {
		usr.Status = *uu.Status
	}
	if uu.Password != "" {
		return usr.SetPassword(uu.Password)
	}
	return nil
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	OrganizationID string    `query:"-"`
	Search         string    `query:"search"`
	Role           auth.Role `query:"role"`
	Status         Status    `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = auth.Role(core.CleanString(string(qf.Role), true /* lower */))
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
}
