package pgrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/class"
)

const classesTable = "classes"

type classRow struct {
	ID             string      `db:"id"`
	OrganizationID string      `db:"organization_id"`
	CourseID       string      `db:"course_id"`
	Name           string      `db:"name"`
	Code           string      `db:"code"`
	AcademicYear   null.String `db:"academic_year"`
	Semester       null.String `db:"semester"`
	Status         string      `db:"status"`
	StartDate      null.Time   `db:"start_date"`
	EndDate        null.Time   `db:"end_date"`
	MaxStudents    null.Int    `db:"max_students"`
	Schedule       null.String `db:"schedule"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	DeletedAt      null.Time   `db:"deleted_at"`
}

func (r classRow) class() class.Class {
	return class.Class{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		CourseID:       r.CourseID,
		Name:           r.Name,
		Code:           r.Code,
		AcademicYear:   r.AcademicYear.String,
		Semester:       r.Semester.String,
		Status:         class.Status(r.Status),
		StartDate:      r.StartDate.Ptr(),
		EndDate:        r.EndDate.Ptr(),
		MaxStudents:    r.MaxStudents.Int,
		Schedule:       r.Schedule.String,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		DeletedAt:      r.DeletedAt.Ptr(),
	}
}

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) values(c class.Class) map[string]interface{} {
	return map[string]interface{}{
		"name":          c.Name,
		"code":          c.Code,
		"academic_year": nullString(c.AcademicYear),
		"semester":      nullString(c.Semester),
		"status":        string(c.Status),
		"start_date":    null.TimeFromPtr(c.StartDate),
		"end_date":      null.TimeFromPtr(c.EndDate),
		"max_students":  null.NewInt(c.MaxStudents, c.MaxStudents > 0),
		"schedule":      nullString(c.Schedule),
		"updated_at":    c.UpdatedAt.UTC(),
	}
}

func (repo *classRepository) CreateClass(ctx context.Context, c class.Class) (class.Class, error) {
	c.ID = uuid.NewString()
	vals := repo.values(c)
	vals["id"] = c.ID
	vals["organization_id"] = c.OrganizationID
	vals["course_id"] = c.CourseID
	vals["created_at"] = c.CreatedAt.UTC()

	if _, err := repo.db.exec(ctx, psql.Insert(classesTable).SetMap(vals)); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	if !validID(id) {
		return class.Class{}, class.ErrNotFound
	}
	var row classRow
	q := psql.Select("*").From(classesTable).Where(sq.Eq{"id": id, "deleted_at": nil})
	if err := repo.db.get(ctx, &row, q); err != nil {
		return class.Class{}, trapNoRowsErr(err, class.ErrNotFound, "finding class")
	}
	return row.class(), nil
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]class.Class, int, error) {
	where := sq.And{sq.Eq{"deleted_at": nil}}
	if filter.OrganizationID != "" {
		where = append(where, sq.Eq{"organization_id": filter.OrganizationID})
	}
	if filter.Search != "" {
		where = append(where, ilike(filter.Search, "name", "code"))
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": string(filter.Status)})
	}
	if filter.CourseID != "" {
		if !validID(filter.CourseID) {
			return []class.Class{}, 0, nil
		}
		where = append(where, sq.Eq{"course_id": filter.CourseID})
	}

	var rows []classRow
	total, err := repo.db.page(ctx, &rows, classesTable, where, ordering, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.class())
	}
	return classes, total, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, c class.Class) (class.Class, error) {
	q := psql.Update(classesTable).
		SetMap(repo.values(c)).
		Where(sq.Eq{"id": c.ID, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return c, nil
}

func (repo *classRepository) SoftDeleteClass(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return class.ErrNotFound
	}
	q := psql.Update(classesTable).
		Set("deleted_at", at.UTC()).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"id": id, "deleted_at": nil})

	n, err := repo.db.exec(ctx, q)
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	if n == 0 {
		return class.ErrNotFound
	}
	return nil
}
