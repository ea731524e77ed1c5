package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edusphere/edusphere/core/auth"
	metricsvc "github.com/edusphere/edusphere/services/metrics"
)

const (
	ctxClaimsKey = "claims"
	ctxPolicyKey = "policy"
	tokenCookie  = "token"
	bearerPrefix = "bearer "
)

// extractToken reads the credential from the Authorization header, falling back to the token cookie
// when no header is sent.
func extractToken(ctx echo.Context) string {
	if header := ctx.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(header[len(bearerPrefix):])
		}
		return ""
	}
	if cookie, err := ctx.Cookie(tokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// guard authenticates the request and rejects principals whose role does not satisfy pol.
// The claims and the policy are stored on the context for authorize.
func (s *Server) guard(pol auth.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := s.deps.Guard.ParseClaims(extractToken(ctx))
			if err != nil {
				s.deps.Metrics.ObserveGuard(metricsvc.DecisionUnauthenticated)
				return err
			}
			ctx.Set(ctxClaimsKey, claims)
			ctx.Set(ctxPolicyKey, pol)
			return s.decide(ctx, pol, "", next)
		}
	}
}

// authorize evaluates the route policy against a resource owned by tenantID.
func (s *Server) authorize(ctx echo.Context, tenantID string) error {
	pol, _ := ctx.Get(ctxPolicyKey).(auth.Policy)
	return s.authorizeWith(ctx, pol, tenantID)
}

// authorizeWith evaluates pol instead of the route policy. Used for rules that depend on the resource,
// such as "self or admin".
func (s *Server) authorizeWith(ctx echo.Context, pol auth.Policy, tenantID string) error {
	return s.decide(ctx, pol, tenantID, nil)
}

func (s *Server) decide(ctx echo.Context, pol auth.Policy, tenantID string, next echo.HandlerFunc) error {
	p, ok := contextPrincipal(ctx)
	if !ok {
		s.deps.Metrics.ObserveGuard(metricsvc.DecisionUnauthenticated)
		return auth.ErrUnauthenticated
	}
	if err := pol.Check(p, tenantID); err != nil {
		if err == auth.ErrCrossTenantAccess {
			s.deps.Metrics.ObserveGuard(metricsvc.DecisionCrossTenant)
		} else {
			s.deps.Metrics.ObserveGuard(metricsvc.DecisionForbidden)
		}
		return err
	}
	if next == nil {
		return nil
	}
	s.deps.Metrics.ObserveGuard(metricsvc.DecisionAllowed)
	return next(ctx)
}

func contextClaims(ctx echo.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Get(ctxClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func contextPrincipal(ctx echo.Context) (auth.Principal, bool) {
	if claims, ok := contextClaims(ctx); ok {
		return claims.Principal(), true
	}
	return auth.Principal{}, false
}

// targetOrganization is the tenant a list or create operation applies to.
// Super admins may pick one with the organization_id query param.
func targetOrganization(ctx echo.Context, p auth.Principal) string {
	if p.Role.IsSuper() {
		if orgID := ctx.QueryParam("organization_id"); orgID != "" {
			return orgID
		}
	}
	return p.OrganizationID
}

func (s *Server) setTokenCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !(s.deps.Conf.Debug || s.deps.Conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
}
