package echoapi

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core/ratelimit"
)

const (
	headerRateLimitLimit     = "RateLimit-Limit"
	headerRateLimitRemaining = "RateLimit-Remaining"
	headerRateLimitReset     = "RateLimit-Reset"
	headerRetryAfter         = "Retry-After"
)

// rateLimit throttles requests with the limits of `policy`. Requests are counted against the
// authenticated user when a guard ran before, else against the client IP.
// Store failures are logged and let the request through.
func (s *Server) rateLimit(policy ratelimit.Policy) echo.MiddlewareFunc {
	cfg, err := policy.Config()
	if err != nil {
		panic(errors.Wrapf(err, "rate limit policy %q", policy))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if s.deps.Limiter == nil || s.deps.Conf.RateLimit.Disabled {
				return next(ctx)
			}

			var userID string
			if p, ok := contextPrincipal(ctx); ok {
				userID = p.UserID
			}
			key := policy.Key(ratelimit.Identifier(userID, ctx.RealIP()))

			res, err := s.deps.Limiter.Check(ctx.Request().Context(), key, cfg)
			if err != nil {
				s.deps.Logger.Error("checking rate limit", errors.Wrap(err, key))
				return next(ctx)
			}
			s.deps.Metrics.ObserveRateLimit(string(policy), res.Allowed)

			resetSecs := strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds())))

			header := ctx.Response().Header()
			header.Set(headerRateLimitLimit, strconv.Itoa(res.Limit))
			header.Set(headerRateLimitRemaining, strconv.Itoa(res.Remaining))
			header.Set(headerRateLimitReset, resetSecs)

			if !res.Allowed {
				header.Set(headerRetryAfter, resetSecs)
				return errRateLimited
			}
			return next(ctx)
		}
	}
}
