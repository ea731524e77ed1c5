package tests

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/ratelimit"
	"github.com/edusphere/edusphere/tests"
)

func enableRateLimit(conf *core.Config) { conf.RateLimit.Disabled = false }

func TestRateLimit_login(t *testing.T) {
	env := setup(t, enableRateLimit)
	org := testutil.CreateOrganization(t, env.orgRepo, "Kin School", "kin-school")
	testutil.CreateUser(t, env.usrRepo, org.ID, "Joe", "joe@kin.test", strongPwd, auth.RoleTeacher, true)

	cfg, err := ratelimit.AuthLogin.Config()
	require.NoError(t, err)

	body := marchallObj(t, map[string]string{"email": "joe@kin.test", "password": "wrong"})
	for i := 1; i <= cfg.MaxRequests; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
		env.serve(req, rec)
		require.Equal(t, http.StatusBadRequest, rec.Code, "attempt %d", i)
		assert.Equal(t, strconv.Itoa(cfg.MaxRequests), rec.Header().Get("RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(cfg.MaxRequests-i), rec.Header().Get("RateLimit-Remaining"))
		assert.Empty(t, rec.Header().Get("Retry-After"))
	}

	// even valid credentials are refused once the window is used up
	good := marchallObj(t, map[string]string{"email": "joe@kin.test", "password": strongPwd})
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", good)
	env.serve(req, rec)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), marchallObj(t, httpErr{Error: "too many requests, please try again later"}))
	require.NoError(t, err)
	assert.True(t, ok, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retryAfter > 0 && retryAfter <= int(cfg.Window.Seconds()), "Retry-After = %d", retryAfter)
	assert.Equal(t, rec.Header().Get("Retry-After"), rec.Header().Get("RateLimit-Reset"))

	t.Run("reset unthrottles", func(t *testing.T) {
		ip, _, err := net.SplitHostPort(req.RemoteAddr)
		require.NoError(t, err)
		key := ratelimit.AuthLogin.Key(ratelimit.Identifier("", ip))
		require.NoError(t, env.limiter.Reset(testCtx, key))

		req, rec := newRequest(http.MethodPost, "/v1/auth/login", good)
		env.serve(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestRateLimit_retryAfterFollowsLimiterClock(t *testing.T) {
	env := setup(t, enableRateLimit)
	// the limiter runs an hour behind the token guard
	frozen := time.Now().Add(-time.Hour)
	env.limiter.WithClock(func() time.Time { return frozen })

	cfg, err := ratelimit.AuthLogin.Config()
	require.NoError(t, err)

	body := marchallObj(t, map[string]string{"email": "nobody@kin.test", "password": "wrong"})
	var rec *httptest.ResponseRecorder
	for i := 0; i <= cfg.MaxRequests; i++ {
		var req *http.Request
		req, rec = newRequest(http.MethodPost, "/v1/auth/login", body)
		env.serve(req, rec)
	}
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	want := strconv.Itoa(int(cfg.Window.Seconds()))
	assert.Equal(t, want, rec.Header().Get("Retry-After"))
	assert.Equal(t, want, rec.Header().Get("RateLimit-Reset"))
}

func TestRateLimit_perUser(t *testing.T) {
	env := setup(t, enableRateLimit)
	org := testutil.CreateOrganization(t, env.orgRepo, "Kin School", "kin-school")
	joe := testutil.CreateUser(t, env.usrRepo, org.ID, "Joe", "joe@kin.test", strongPwd, auth.RoleTeacher, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", getToken(t, env.guard, joe))
	env.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cfg, _ := ratelimit.APIDefault.Config()
	assert.Equal(t, strconv.Itoa(cfg.MaxRequests-1), rec.Header().Get("RateLimit-Remaining"))

	// the counter belongs to the user, not to the shared client address
	key := ratelimit.APIDefault.Key(ratelimit.Identifier(joe.ID, ""))
	res, err := env.limiter.Check(testCtx, key, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.MaxRequests-2, res.Remaining)
}

func TestRateLimit_disabled(t *testing.T) {
	env := setup(t)
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", marchallObj(t, map[string]string{"email": "x@y.test", "password": "nope"}))
	env.serve(req, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Header().Get("RateLimit-Limit"))
	assert.Equal(t, 0, env.limiter.Len())
}
