package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when a live user other than excludedIDs owns email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns ErrNotFound for unknown and soft deleted users.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields and returns one page
		// plus the total number of matches.
		// QueryFilter.Search does a case-insensitive match on one of FirstName, LastName or Email.
		QueryUsers(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]User, int, error)
		CountUsers(ctx context.Context, filter QueryFilter) (int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SoftDeleteUser(ctx context.Context, id string, at time.Time) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var OrderingFields = []string{"created_at", "updated_at", "email", "first_name", "last_name", "role", "status"}

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens: tokenGenerator{
			secretKey: []byte(conf.SecretKey),
			timeout:   conf.PasswordResetTimeoutDelta,
		},
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create creates an active user in organization `orgID`.
func (svc *Service) Create(ctx context.Context, nu NewUser, orgID string) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		OrganizationID: orgID,
		Email:          nu.Email,
		FirstName:      nu.FirstName,
		LastName:       nu.LastName,
		Role:           nu.Role,
		Status:         StatusActive,
		Phone:          nu.Phone,
		Address:        nu.Address,
		AvatarURL:      nu.AvatarURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]User, int, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	return svc.repo.QueryUsers(ctx, filter, ordering, page)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	if err := uu.Apply(&usr); err != nil {
		return User{}, errors.Wrap(err, "applying update")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	usr.LastLoginAt = &now
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete soft deletes the user: it disappears from every lookup but its row is kept.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDeleteUser(ctx, id, time.Now().UTC())
}

// SendWelcome emails a freshly created user.
func (svc *Service) SendWelcome(usr User, orgName string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Welcome",
		Category:     "welcome",
		TemplateName: "welcome",
		TemplateData: map[string]string{
			"Name":         usr.Name(),
			"Email":        usr.Email,
			"Organization": orgName,
		},
	})
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive() {
		return ErrNotFound
	}
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:              []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:         "Password Reset",
		Category:        "password_reset",
		DisableTracking: true,
		TemplateName:    "password_reset",
		TemplateData:    map[string]string{
			"Name":  usr.Name(),
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

// ResetPassword sets a new password if data holds a valid reset token.
// Any token or uid problem is reported as a validation error on "token".
func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalid := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: "invalid or expired token"})
	}

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalid(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return invalid(errInvalidToken)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err := svc.tokens.verifyToken(usr, data.Token); err != nil {
		return invalid(err)
	}
	_, err = svc.SetPassword(ctx, usr, data.Password)
	return err
}
