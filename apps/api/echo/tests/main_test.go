package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	echoapi "github.com/edusphere/edusphere/apps/api/echo"
	"github.com/edusphere/edusphere/apps/shared"
	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/class"
	"github.com/edusphere/edusphere/core/course"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/ratelimit"
	"github.com/edusphere/edusphere/core/user"
	appfs "github.com/edusphere/edusphere/fs"
	emailsvc "github.com/edusphere/edusphere/services/email"
	logsvc "github.com/edusphere/edusphere/services/logger"
	metricsvc "github.com/edusphere/edusphere/services/metrics"
	inmemdb "github.com/edusphere/edusphere/storage/database/inmem"
)

var (
	testCtx = context.Background()

	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger

	errUnauthenticated = httpErr{Error: "user not authenticated"}
	errForbidden       = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf := core.NewTestConfig()
	logger = logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	validate, translator = shared.NewValidator()

	core.ParseEmailTemplates(conf, appfs.FS, logger)
	user.LoadCommonPasswords(appfs.FS, logger)

	os.Exit(m.Run())
}

type testEnv struct {
	app        *echoapi.Server
	conf       *core.Config
	guard      *auth.Guard
	mail       *emailsvc.ConsoleServiceMock
	limiter    *ratelimit.MemoryStore
	usrRepo    user.Repository
	orgRepo    organization.Repository
	courseRepo course.Repository
	classRepo  class.Repository
}

// setup builds a server over a fresh in-memory database. Rate limiting is off unless a test
// turns it back on through `configure`.
func setup(t *testing.T, configure ...func(conf *core.Config)) *testEnv {
	conf := core.NewTestConfig()
	conf.RateLimit.Disabled = true
	for _, fn := range configure {
		fn(conf)
	}

	guard, err := auth.NewGuardFromConfig(conf)
	if err != nil {
		t.Fatalf("NewGuardFromConfig(): %v", err)
	}

	db := inmemdb.Open()
	env := &testEnv{
		conf:       conf,
		guard:      guard,
		mail:       emailsvc.NewConsoleServiceMock(conf),
		limiter:    ratelimit.NewMemoryStore(),
		usrRepo:    inmemdb.NewUserRepository(db),
		orgRepo:    inmemdb.NewOrganizationRepository(db),
		courseRepo: inmemdb.NewCourseRepository(db),
		classRepo:  inmemdb.NewClassRepository(db),
	}

	usrSvc := user.NewService(env.usrRepo, env.mail, conf)
	courseSvc := course.NewService(env.courseRepo, usrSvc)
	env.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Guard:      guard,
		Limiter:    env.limiter,
		Metrics:    metricsvc.New(prometheus.NewRegistry()),
		UserSvc:    usrSvc,
		OrgSvc:     organization.NewService(env.orgRepo, usrSvc, db),
		CourseSvc:  courseSvc,
		ClassSvc:   class.NewService(env.classRepo, courseSvc),
		Validate:   validate,
		Translator: translator,
	})
	return env
}

func (env *testEnv) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	env.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, guard *auth.Guard, usr user.User) string {
	token, _, err := guard.Issue(usr.Principal(), usr.Email)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallPage(t *testing.T, results interface{}, page core.PageInfo) []byte {
	return marchallObj(t, echoapi.ListResponse{Results: results, Pagination: page})
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
