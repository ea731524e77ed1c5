package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/course"
)

const coursesTable = "courses"

type courseRow struct {
	ID             string      `db:"id"`
	OrganizationID string      `db:"organization_id"`
	InstructorID   null.String `db:"instructor_id"`
	Title          string      `db:"title"`
	Slug           string      `db:"slug"`
	Description    null.String `db:"description"`
	Category       null.String `db:"category"`
	Level          null.String `db:"level"`
	Language       null.String `db:"language"`
	DurationHours  null.Int    `db:"duration_hours"`
	Price          float64     `db:"price"`
	ThumbnailURL   null.String `db:"thumbnail_url"`
	IsPublished    bool        `db:"is_published"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	DeletedAt      null.Time   `db:"deleted_at"`
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		InstructorID:   r.InstructorID.String,
		Title:          r.Title,
		Slug:           r.Slug,
		Description:    r.Description.String,
		Category:       r.Category.String,
		Level:          course.Level(r.Level.String),
		Language:       r.Language.String,
		DurationHours:  r.DurationHours.Int,
		Price:          r.Price,
		ThumbnailURL:   r.ThumbnailURL.String,
		IsPublished:    r.IsPublished,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		DeletedAt:      r.DeletedAt.Ptr(),
	}
}

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CheckSlugUniqueness(ctx context.Context, orgID, slug string, excludedIDs ...string) error {
	where := sq.And{sq.Eq{"organization_id": orgID, "slug": slug, "deleted_at": nil}}
	if len(excludedIDs) > 0 {
		where = append(where, sq.NotEq{"id": excludedIDs})
	}
	exists, err := repo.db.exists(ctx, coursesTable, where)
	if err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return course.ErrSlugExists
	}
	return nil
}

func (repo *courseRepository) values(c course.Course) map[string]interface{} {
	return map[string]interface{}{
		"instructor_id":  nullString(c.InstructorID),
		"title":          c.Title,
		"description":    nullString(c.Description),
		"category":       nullString(c.Category),
		"level":          nullString(string(c.Level)),
		"language":       nullString(c.Language),
		"duration_hours": null.NewInt(c.DurationHours, c.DurationHours > 0),
		"price":          c.Price,
		"thumbnail_url":  nullString(c.ThumbnailURL),
		"is_published":   c.IsPublished,
		"updated_at":     c.UpdatedAt.UTC(),
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.NewString()
	vals := repo.values(c)
	vals["id"] = c.ID
	vals["organization_id"] = c.OrganizationID
	vals["slug"] = c.Slug
	vals["created_at"] = c.CreatedAt.UTC()

	if _, err := repo.db.exec(ctx, psql.Insert(coursesTable).SetMap(vals)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if !validID(id) {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	q := psql.Select("*").From(coursesTable).Where(sq.Eq{"id": id, "deleted_at": nil})
	if err := repo.db.get(ctx, &row, q); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]course.Course, int, error) {
	where := sq.And{sq.Eq{"deleted_at": nil}}
	if filter.OrganizationID != "" {
		where = append(where, sq.Eq{"organization_id": filter.OrganizationID})
	}
	if filter.Search != "" {
		where = append(where, ilike(filter.Search, "title", "description"))
	}
	if filter.Category != "" {
		where = append(where, sq.Eq{"category": filter.Category})
	}
	if filter.Level != "" {
		where = append(where, sq.Eq{"level": string(filter.Level)})
	}
	if filter.InstructorID != "" {
		if !validID(filter.InstructorID) {
			return []course.Course{}, 0, nil
		}
		where = append(where, sq.Eq{"instructor_id": filter.InstructorID})
	}
	if filter.IsPublished != nil {
		where = append(where, sq.Eq{"is_published": *filter.IsPublished})
	}

	var rows []courseRow
	total, err := repo.db.page(ctx, &rows, coursesTable, where, ordering, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, total, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := psql.Update(coursesTable).
		SetMap(repo.values(c)).
		Where(sq.Eq{"id": c.ID, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (repo *courseRepository) SoftDeleteCourse(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return course.ErrNotFound
	}
	q := psql.Update(coursesTable).
		Set("deleted_at", at.UTC()).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"id": id, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}
