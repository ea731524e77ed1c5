package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/class"
	"github.com/edusphere/edusphere/core/course"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/user"
)

func CreateOrganization(t *testing.T, repo organization.Repository, name, slug string, createdAt ...time.Time) organization.Organization {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	org, err := repo.CreateOrganization(context.Background(), organization.Organization{
		Name:      name,
		Slug:      slug,
		Type:      organization.TypeSchool,
		Status:    organization.StatusActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateOrganization() failed: %v", err)
	}
	return org
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	orgID, firstName, email, pwd string,
	role auth.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	status := user.StatusActive
	if !isActive {
		status = user.StatusInactive
	}
	usr := user.User{
		OrganizationID: orgID,
		FirstName:      firstName,
		LastName:       "Test",
		Email:          email,
		Role:           role,
		Status:         status,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, orgID, instructorID, title, slug string, published bool) course.Course {
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		OrganizationID: orgID,
		InstructorID:   instructorID,
		Title:          title,
		Slug:           slug,
		Level:          course.LevelBeginner,
		IsPublished:    published,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateClass(t *testing.T, repo class.Repository, orgID, courseID, name, code string) class.Class {
	now := time.Now().UTC()
	cls, err := repo.CreateClass(context.Background(), class.Class{
		OrganizationID: orgID,
		CourseID:       courseID,
		Name:           name,
		Code:           code,
		Status:         class.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}
