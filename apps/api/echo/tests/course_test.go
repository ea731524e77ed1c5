package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/course"
	"github.com/edusphere/edusphere/tests"
)

type courseFixtures struct {
	tenants
	algebra, geometry, physics course.Course
	teacher2Token              string
}

func seedCourses(t *testing.T, env *testEnv) courseFixtures {
	fx := courseFixtures{tenants: seedTenants(t, env)}
	teacher2 := testutil.CreateUser(t, env.usrRepo, fx.orgA.ID, "Teacher2", "teacher2@a.test", strongPwd, auth.RoleTeacher, true)
	fx.teacher2Token = getToken(t, env.guard, teacher2)

	fx.algebra = testutil.CreateCourse(t, env.courseRepo, fx.orgA.ID, fx.teacher.ID, "Algebra", "algebra", true)
	fx.geometry = testutil.CreateCourse(t, env.courseRepo, fx.orgA.ID, fx.teacher.ID, "Geometry", "geometry", false)
	fx.physics = testutil.CreateCourse(t, env.courseRepo, fx.orgB.ID, "", "Physics", "physics", true)
	return fx
}

func Test_courseApi_query(t *testing.T) {
	env := setup(t)
	fx := seedCourses(t, env)

	page := func(total int) core.PageInfo { return core.NewPagination(1, 0).Info(total) }
	tests := []httpTest{
		{name: "Auth required", path: "/v1/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthenticated)},
		{
			name: "Students see published courses", path: "/v1/courses?ordering=title", token: fx.studentToken,
			wantData: marchallPage(t, []course.Course{fx.algebra}, page(1)),
		},
		{
			name: "Students cannot ask for drafts", path: "/v1/courses?ordering=title&is_published=false", token: fx.studentToken,
			wantData: marchallPage(t, []course.Course{fx.algebra}, page(1)),
		},
		{
			name: "Teachers see drafts", path: "/v1/courses?ordering=title", token: fx.teacherToken,
			wantData: marchallPage(t, []course.Course{fx.algebra, fx.geometry}, page(2)),
		},
		{
			name: "is_published=false", path: "/v1/courses?is_published=false", token: fx.adminToken,
			wantData: marchallPage(t, []course.Course{fx.geometry}, page(1)),
		},
		{
			name: "search", path: "/v1/courses?search=GEO", token: fx.adminToken,
			wantData: marchallPage(t, []course.Course{fx.geometry}, page(1)),
		},
		{
			name: "Super admin picks the organization", path: "/v1/courses?organization_id=" + fx.orgB.ID, token: fx.superToken,
			wantData: marchallPage(t, []course.Course{fx.physics}, page(1)),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runTests(t, env, tests)
}

func Test_courseApi_create(t *testing.T) {
	env := setup(t)
	fx := seedCourses(t, env)

	invalidInstructor := marchallObj(t, echo.Map{"instructor_id": "invalid instructor"})
	tests := []httpTest{
		{name: "Editor required", token: fx.studentToken, body: marchallObj(t, course.NewCourse{Title: "Calculus"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "required fields", token: fx.adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, echo.Map{"title": "this field is required"}),
		},
		{
			name: "invalid level", token: fx.adminToken, body: marchallObj(t, course.NewCourse{Title: "Calculus", Level: "expert"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, echo.Map{"level": "invalid level"}),
		},
		{
			name: "student instructor", token: fx.adminToken, body: marchallObj(t, course.NewCourse{Title: "Calculus", InstructorID: fx.student.ID}),
			wantCode: http.StatusBadRequest, wantData: invalidInstructor,
		},
		{
			name: "instructor from other tenant", token: fx.adminToken, body: marchallObj(t, course.NewCourse{Title: "Calculus", InstructorID: fx.adminB.ID}),
			wantCode: http.StatusBadRequest, wantData: invalidInstructor,
		},
		{
			name: "slug taken", token: fx.adminToken, body: marchallObj(t, course.NewCourse{Title: "Algebra"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, echo.Map{"slug": course.ErrSlugExists.Error()}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/courses"
	}
	runTests(t, env, tests)

	t.Run("Teacher becomes instructor", func(t *testing.T) {
		body := marchallObj(t, course.NewCourse{Title: "Calculus", Level: course.LevelAdvanced, Price: 49.5})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", fx.teacherToken, body)
		env.serve(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var crs course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
		assert.Equal(t, fx.orgA.ID, crs.OrganizationID)
		assert.Equal(t, fx.teacher.ID, crs.InstructorID)
		assert.Equal(t, "calculus", crs.Slug)
		assert.Equal(t, 49.5, crs.Price)
		assert.False(t, crs.IsPublished)
	})
}

func Test_courseApi_retrieve(t *testing.T) {
	env := setup(t)
	fx := seedCourses(t, env)

	path := func(crs course.Course) string { return "/v1/courses/" + crs.ID }
	tests := []httpTest{
		{name: "Published", path: path(fx.algebra), token: fx.studentToken, wantData: marchallObj(t, fx.algebra)},
		{
			name: "Drafts are hidden from students", path: path(fx.geometry), token: fx.studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()}),
		},
		{name: "Draft", path: path(fx.geometry), token: fx.teacherToken, wantData: marchallObj(t, fx.geometry)},
		{name: "Other tenant", path: path(fx.physics), token: fx.studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Super admin", path: path(fx.physics), token: fx.superToken, wantData: marchallObj(t, fx.physics)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runTests(t, env, tests)
}

func Test_courseApi_update(t *testing.T) {
	env := setup(t)
	fx := seedCourses(t, env)

	path := "/v1/courses/" + fx.algebra.ID
	tests := []httpTest{
		{name: "Student", path: path, token: fx.studentToken, body: marchallObj(t, echo.Map{"title": "Hacked"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Not the instructor", path: path, token: fx.teacher2Token, body: marchallObj(t, echo.Map{"title": "Hacked"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Other tenant", path: path, token: getToken(t, env.guard, fx.adminB),
			body: marchallObj(t, echo.Map{"title": "Hacked"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Invalid price", path: path, token: fx.teacherToken, body: marchallObj(t, echo.Map{"price": -1}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, echo.Map{"price": "price must be 0 or greater"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPut
	}
	runTests(t, env, tests)

	t.Run("Instructor updates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path, fx.teacherToken, marchallObj(t, echo.Map{"title": "Algebra II", "is_published": false}))
		env.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var crs course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
		assert.Equal(t, "Algebra II", crs.Title)
		assert.False(t, crs.IsPublished)
		assert.Equal(t, fx.algebra.Slug, crs.Slug)
	})
}

func Test_courseApi_destroy(t *testing.T) {
	env := setup(t)
	fx := seedCourses(t, env)

	path := "/v1/courses/" + fx.algebra.ID
	tests := []httpTest{
		{name: "Admin required", path: path, token: fx.teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Other tenant", path: "/v1/courses/" + fx.physics.ID, token: fx.adminToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Deleted", path: path, token: fx.adminToken, wantCode: http.StatusNoContent},
		{name: "Already deleted", path: path, token: fx.adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: course.ErrNotFound.Error()})},
	}
	for i := range tests {
		tests[i].method = http.MethodDelete
	}
	runTests(t, env, tests)
}
