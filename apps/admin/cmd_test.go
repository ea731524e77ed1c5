package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere/apps/shared"
	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/ratelimit"
	"github.com/edusphere/edusphere/core/user"
	appfs "github.com/edusphere/edusphere/fs"
	emailsvc "github.com/edusphere/edusphere/services/email"
	logsvc "github.com/edusphere/edusphere/services/logger"
	"github.com/edusphere/edusphere/tests"
)

const strongPwd = "Str0ng!Pass#1"

var ctx = context.Background()

func TestMain(m *testing.M) {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
	user.LoadCommonPasswords(appfs.FS, logger)
	os.Exit(m.Run())
}

type cliEnv struct {
	cli     *commandLine
	store   *shared.Store
	limiter *ratelimit.MemoryStore
}

func setup(t *testing.T) *cliEnv {
	conf := core.NewTestConfig()
	store := shared.NewMemoryStore()
	limiter := ratelimit.NewMemoryStore()
	validate, translator := shared.NewValidator()
	usrSvc := user.NewService(store.UserRepo, emailsvc.NewConsoleServiceMock(conf), conf)

	return &cliEnv{
		cli: &commandLine{
			db:         sqlx.NewDb(nil, "postgres"),
			usrSvc:     usrSvc,
			orgSvc:     organization.NewService(store.OrgRepo, usrSvc, store.Txr),
			limiter:    limiter,
			validate:   validate,
			translator: translator,
			out:        io.Discard,
		},
		store:   store,
		limiter: limiter,
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(ctx, append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	env := setup(t)
	var out bytes.Buffer
	env.cli.out = &out

	runCLITests(t, env.cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "unthrottle")
}

func Test_commandLine_migrate(t *testing.T) {
	env := setup(t)

	migrateFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, env.cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "enrollments", "sql"}},
	})

	t.Run("in-memory database", func(t *testing.T) {
		env.cli.db = nil
		err := env.cli.run(ctx, []string{"admin", "migrate", "up"})
		if assert.Error(t, err) {
			assert.Equal(t, "migrations need a postgres database", err.Error())
		}
	})
}

func Test_commandLine_createUser(t *testing.T) {
	env := setup(t)
	school := testutil.CreateOrganization(t, env.store.OrgRepo, "Kin School", "kin-school")
	existing := testutil.CreateUser(t, env.store.UserRepo, school.ID, "Joe", "joe@kin.test", strongPwd, auth.RoleStudent, false)

	runCLITests(t, env.cli, []cliTest{
		{name: "no args", args: []string{"createuser"}, wantErr: errHelp},
		{name: "no password", args: []string{"createuser", "-email", "root@test.test", "-first", "Root", "-last", "Admin"}, wantErr: errHelp},
		{
			name: "invalid role", args: []string{"createuser", "-email", "root@test.test", "-first", "Root", "-last", "Admin", "-role", "god"},
			pwd: strongPwd, wantErrStr: "role: invalid role",
		},
		{
			name: "weak password", args: []string{"createuser", "-email", "root@test.test", "-first", "Root", "-last", "Admin"},
			pwd: "password", wantErrStr: "password: password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
		},
		{name: "super admin", args: []string{"createuser", "-email", "Root@Test.test", "-first", "Root", "-last", "Admin"}, pwd: strongPwd},
		{
			name: "teacher of existing org", args: []string{"createuser", "-email", "joe@kin.test", "-first", "Joe", "-last", "Teacher", "-role", "teacher", "-org", "kin-school"},
			pwd: "N3w!Secret#42",
		},
		{
			name: "user of another org", args: []string{"createuser", "-email", "joe@kin.test", "-first", "Joe", "-last", "Teacher"},
			pwd: strongPwd, wantErrStr: "joe@kin.test belongs to another organization",
		},
	})

	org, err := env.cli.orgSvc.GetBySlug(ctx, platformSlug)
	require.NoError(t, err)
	root, err := env.cli.usrSvc.GetByEmail(ctx, "root@test.test")
	require.NoError(t, err)
	assert.Equal(t, org.ID, root.OrganizationID)
	assert.Equal(t, auth.RoleSuperAdmin, root.Role)
	assert.True(t, root.IsActive())
	assert.NoError(t, root.CheckPassword(strongPwd))

	joe, err := env.cli.usrSvc.GetByEmail(ctx, existing.Email)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, joe.ID)
	assert.Equal(t, auth.RoleTeacher, joe.Role)
	assert.Equal(t, "Teacher", joe.LastName)
	assert.True(t, joe.IsActive())
	assert.NoError(t, joe.CheckPassword("N3w!Secret#42"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	env := setup(t)
	org := testutil.CreateOrganization(t, env.store.OrgRepo, "Kin School", "kin-school")
	usr := testutil.CreateUser(t, env.store.UserRepo, org.ID, "Awe", "awe@kin.test", strongPwd, auth.RoleTeacher, true)

	runCLITests(t, env.cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@kin.test"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@kin.test"}, pwd: strongPwd, wantErr: user.ErrNotFound},
		{name: "too short", args: []string{"resetpassword", "-email", usr.Email}, pwd: "Ab1!", wantErrStr: "password: password must contain at least 8 characters"},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@kin.test"}, pwd: "N3w!Secret#42"},
	})

	refreshed, err := env.cli.usrSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("N3w!Secret#42"))
}

func Test_commandLine_unthrottle(t *testing.T) {
	env := setup(t)
	cfg, err := ratelimit.AuthLogin.Config()
	require.NoError(t, err)

	key := ratelimit.AuthLogin.Key(ratelimit.Identifier("", "10.0.0.7"))
	for i := 0; i <= cfg.MaxRequests; i++ {
		_, err = env.limiter.Check(ctx, key, cfg)
		require.NoError(t, err)
	}
	res, err := env.limiter.Check(ctx, key, cfg)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	runCLITests(t, env.cli, []cliTest{
		{name: "no target", args: []string{"unthrottle"}, wantErr: errHelp},
		{name: "unknown policy", args: []string{"unthrottle", "-policy", "lol", "-ip", "10.0.0.7"}, wantErrStr: "lol: unknown rate limit policy"},
		{name: "ip", args: []string{"unthrottle", "-ip", "10.0.0.7"}},
		{name: "raw key", args: []string{"unthrottle", "-key", "auth_login:ip:10.0.0.8"}},
	})

	res, err = env.limiter.Check(ctx, key, cfg)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, cfg.MaxRequests-1, res.Remaining)

	t.Run("no shared store", func(t *testing.T) {
		env.cli.limiter = nil
		err := env.cli.run(ctx, []string{"admin", "unthrottle", "-ip", "10.0.0.7"})
		if assert.Error(t, err) {
			assert.Equal(t, "unthrottle needs the redis rate limit store", err.Error())
		}
	})
}
