package organization

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/user"
)

var (
	ErrNotFound   = core.NewNotFoundError("organization not found")
	ErrSlugExists = errors.New("an organization with this slug already exists")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excludedIDs ...string) error
		CreateOrganization(ctx context.Context, org Organization) (Organization, error)
		// GetOrganization returns ErrNotFound for unknown and soft deleted organizations.
		GetOrganization(ctx context.Context, filter GetFilter) (Organization, error)
		// QueryOrganizations returns one page of matches plus their total number.
		// QueryFilter.Search does a case-insensitive match on Name or Slug.
		QueryOrganizations(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Organization, int, error)
		UpdateOrganization(ctx context.Context, org Organization) (Organization, error)
		SoftDeleteOrganization(ctx context.Context, id string, at time.Time) error
		// Stats counts the live users, courses and classes of an organization.
		Stats(ctx context.Context, id string) (Stats, error)
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
		txr    core.Transactor
	}
)

var OrderingFields = []string{"created_at", "updated_at", "name", "slug", "type", "status"}

func NewService(repo Repository, usrSvc *user.Service, txr core.Transactor) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, txr: txr}
}

func (svc *Service) Create(ctx context.Context, no NewOrganization) (Organization, error) {
	if no.Slug == "" {
		no.Slug = slugFor(no.Name)
	}
	if err := svc.repo.CheckSlugUniqueness(ctx, no.Slug); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return Organization{}, core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return Organization{}, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateOrganization(ctx, Organization{
		Name:      no.Name,
		Slug:      no.Slug,
		Type:      no.Type,
		Email:     no.Email,
		Phone:     no.Phone,
		Address:   no.Address,
		Website:   no.Website,
		LogoURL:   no.LogoURL,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Register creates an organization and its first admin in a single transaction.
// A slug collision on the derived slug is resolved with a random suffix.
func (svc *Service) Register(ctx context.Context, reg Registration) (Organization, user.User, error) {
	var (
		org Organization
		usr user.User
	)
	err := svc.txr.InTx(ctx, func(ctx context.Context) error {
		slug := slugFor(reg.OrganizationName)
		if err := svc.repo.CheckSlugUniqueness(ctx, slug); err != nil {
			if errors.Cause(err) != ErrSlugExists {
				return err
			}
			slug = slug + "-" + uuid.NewString()[:8]
		}

		var err error
		org, err = svc.Create(ctx, NewOrganization{Name: reg.OrganizationName, Slug: slug, Type: reg.OrganizationType})
		if err != nil {
			return errors.Wrap(err, "creating organization")
		}
		usr, err = svc.usrSvc.Create(ctx, reg.NewUser, org.ID)
		if err != nil {
			return errors.Wrap(err, "creating admin")
		}
		return nil
	})
	if err != nil {
		return Organization{}, user.User{}, err
	}
	return org, usr, nil
}

func slugFor(name string) string {
	slug := core.Slugify(name)
	if len(slug) < 3 {
		slug = "org-" + uuid.NewString()[:8]
	}
	return slug
}

func (svc *Service) GetByID(ctx context.Context, id string) (Organization, error) {
	return svc.repo.GetOrganization(ctx, GetFilter{ID: id})
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Organization, error) {
	return svc.repo.GetOrganization(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Organization, int, error) {
	ordering = core.AllowedOrderings(ordering, OrderingFields...)
	return svc.repo.QueryOrganizations(ctx, filter, ordering, page)
}

func (svc *Service) Update(ctx context.Context, org Organization, uo UpdateOrganization) (Organization, error) {
	uo.Apply(&org)
	org.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateOrganization(ctx, org)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.SoftDeleteOrganization(ctx, id, time.Now().UTC())
}

func (svc *Service) Stats(ctx context.Context, id string) (Stats, error) {
	if _, err := svc.GetByID(ctx, id); err != nil {
		return Stats{}, err
	}
	return svc.repo.Stats(ctx, id)
}
