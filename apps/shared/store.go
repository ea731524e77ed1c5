// Package shared wires the pieces both the API and the admin CLI are built from.
package shared

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/class"
	"github.com/edusphere/edusphere/core/course"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/user"
	"github.com/edusphere/edusphere/storage/database"
	inmemdb "github.com/edusphere/edusphere/storage/database/inmem"
	pgrepos "github.com/edusphere/edusphere/storage/database/postgres"
)

// EngineMemory keeps everything in process memory; nothing survives a restart.
const EngineMemory = "memory"

// Store groups the repositories of one database.
type Store struct {
	Txr        core.Transactor
	UserRepo   user.Repository
	OrgRepo    organization.Repository
	CourseRepo course.Repository
	ClassRepo  class.Repository

	// DB is nil for the in-memory engine.
	DB *sqlx.DB
}

// UsesMemory reports whether conf selects the in-memory engine.
func UsesMemory(conf *core.Config) bool {
	engine := strings.ToLower(conf.Database.Engine)
	return engine == "" || engine == EngineMemory
}

// NewMemoryStore returns a Store over a fresh in-memory database.
func NewMemoryStore() *Store {
	db := inmemdb.Open()
	return &Store{
		Txr:        db,
		UserRepo:   inmemdb.NewUserRepository(db),
		OrgRepo:    inmemdb.NewOrganizationRepository(db),
		CourseRepo: inmemdb.NewCourseRepository(db),
		ClassRepo:  inmemdb.NewClassRepository(db),
	}
}

// OpenStore opens the configured database. With `migrate`, a postgres database and its role are
// created when missing and brought to the latest migration.
func OpenStore(ctx context.Context, conf *core.Config, migrate bool) (*Store, error) {
	if UsesMemory(conf) {
		return NewMemoryStore(), nil
	}

	if migrate {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
	}
	sqlDB, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err = database.Migrate(sqlDB, "up"); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	db := pgrepos.New(sqlDB)
	return &Store{
		Txr:        db,
		UserRepo:   pgrepos.NewUserRepository(db),
		OrgRepo:    pgrepos.NewOrganizationRepository(db),
		CourseRepo: pgrepos.NewCourseRepository(db),
		ClassRepo:  pgrepos.NewClassRepository(db),
		DB:         sqlDB,
	}, nil
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
