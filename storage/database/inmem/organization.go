package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/organization"
)

type organizationRepository struct {
	db *DB
}

var _ organization.Repository = (*organizationRepository)(nil) // interface compliance check

func NewOrganizationRepository(db *DB) *organizationRepository {
	return &organizationRepository{db: db}
}

func (repo *organizationRepository) CheckSlugUniqueness(_ context.Context, slug string, excludedIDs ...string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, org := range repo.db.orgs {
		if org.DeletedAt == nil && org.Slug == slug && !isExcluded(org.ID, excludedIDs) {
			return organization.ErrSlugExists
		}
	}
	return nil
}

func (repo *organizationRepository) CreateOrganization(_ context.Context, org organization.Organization) (organization.Organization, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	org.ID = uuid.NewString()
	repo.db.orgs[org.ID] = &org
	return org, nil
}

func (repo *organizationRepository) GetOrganization(_ context.Context, filter organization.GetFilter) (organization.Organization, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, org := range repo.db.orgs {
		if org.DeletedAt != nil {
			continue
		}
		if (filter.ID != "" && org.ID == filter.ID) || (filter.ID == "" && filter.Slug != "" && org.Slug == filter.Slug) {
			return *org, nil
		}
	}
	return organization.Organization{}, organization.ErrNotFound
}

func compareOrganizations(a, b organization.Organization, field string) int {
	switch field {
	case "updated_at":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case "name":
		return compareStrings(a.Name, b.Name)
	case "slug":
		return compareStrings(a.Slug, b.Slug)
	case "type":
		return compareStrings(string(a.Type), string(b.Type))
	case "status":
		return compareStrings(string(a.Status), string(b.Status))
	}
	return compareTimes(a.CreatedAt, b.CreatedAt)
}

func (repo *organizationRepository) QueryOrganizations(_ context.Context, filter organization.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]organization.Organization, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	orgs := make([]organization.Organization, 0, len(repo.db.orgs))
	for _, org := range repo.db.orgs {
		if org.DeletedAt != nil {
			continue
		}
		if filter.Search != "" && !(contains(org.Name, filter.Search) || contains(org.Slug, filter.Search)) {
			continue
		}
		if filter.Type != "" && org.Type != filter.Type {
			continue
		}
		if filter.Status != "" && org.Status != filter.Status {
			continue
		}
		orgs = append(orgs, *org)
	}
	sortBy(orgs, ordering, compareOrganizations)
	return core.Paginate(orgs, page), len(orgs), nil
}

func (repo *organizationRepository) UpdateOrganization(_ context.Context, org organization.Organization) (organization.Organization, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.orgs[org.ID]
	if !ok || orig.DeletedAt != nil {
		return organization.Organization{}, organization.ErrNotFound
	}
	org.CreatedAt = orig.CreatedAt
	org.DeletedAt = nil
	repo.db.orgs[org.ID] = &org
	return org, nil
}

func (repo *organizationRepository) SoftDeleteOrganization(_ context.Context, id string, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	org, ok := repo.db.orgs[id]
	if !ok || org.DeletedAt != nil {
		return organization.ErrNotFound
	}
	org.DeletedAt = &at
	org.UpdatedAt = at
	return nil
}

func (repo *organizationRepository) Stats(_ context.Context, id string) (organization.Stats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var stats organization.Stats
	for _, usr := range repo.db.users {
		if usr.DeletedAt == nil && usr.OrganizationID == id {
			stats.Users++
			if usr.Role == auth.RoleStudent {
				stats.Students++
			}
		}
	}
	for _, crs := range repo.db.courses {
		if crs.DeletedAt == nil && crs.OrganizationID == id {
			stats.Courses++
		}
	}
	for _, cls := range repo.db.classes {
		if cls.DeletedAt == nil && cls.OrganizationID == id {
			stats.Classes++
		}
	}
	return stats, nil
}
