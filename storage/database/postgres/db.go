// Package pgrepos implements the repositories on PostgreSQL with sqlx and squirrel.
package pgrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusphere/edusphere/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type txKey struct{}

// DB wraps a connection pool and runs transactions carried by the context.
type DB struct {
	db *sqlx.DB
}

var _ core.Transactor = (*DB)(nil) // interface compliance check

func New(db *sqlx.DB) *DB {
	return &DB{db: db}
}

// InTx begins a transaction unless ctx already carries one, in which case fn joins it.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (db *DB) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.db
}

func (db *DB) get(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, db.ext(ctx), dest, query, args...)
}

func (db *DB) selectRows(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, db.ext(ctx), dest, query, args...)
}

// exec runs q and returns the number of affected rows.
func (db *DB) exec(ctx context.Context, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := db.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) exists(ctx context.Context, table string, where sq.Sqlizer) (bool, error) {
	var exists bool
	sub, args, err := psql.Select("1").From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}
	err = sqlx.GetContext(ctx, db.ext(ctx), &exists, "SELECT EXISTS ("+sub+")", args...)
	return exists, err
}

// page counts the rows matching `where` then selects the requested window into dest.
func (db *DB) page(ctx context.Context, dest interface{}, table string, where sq.And, ordering []core.DBOrdering, p core.Pagination) (int, error) {
	var total int
	if err := db.get(ctx, &total, psql.Select("COUNT(*)").From(table).Where(where)); err != nil {
		return 0, err
	}

	q := psql.Select("*").From(table).Where(where)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	for _, ord := range ordering {
		q = q.OrderBy(ord.String())
	}
	if p.Limit > 0 {
		q = q.Limit(uint64(p.Limit)).Offset(uint64(p.Offset()))
	}
	if err := db.selectRows(ctx, dest, q); err != nil {
		return 0, err
	}
	return total, nil
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func ilike(val string, cols ...string) sq.Or {
	or := make(sq.Or, 0, len(cols))
	for _, col := range cols {
		or = append(or, sq.ILike{col: "%" + val + "%"})
	}
	return or
}
