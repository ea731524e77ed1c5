package auth

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
)

var (
	signingMethod = jwt.SigningMethodHS256

	ErrRefreshExpired = errors.New("refresh has expired")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt   int64  `json:"oriat,omitempty"`
	OrganizationID string `json:"org"`
	Role           Role   `json:"role"`
	Email          string `json:"email,omitempty"`
}

func (c Claims) Principal() Principal {
	return Principal{
		UserID:         c.Subject,
		OrganizationID: c.OrganizationID,
		Role:           c.Role,
	}
}

// ExpiresAtTime is the instant from which the token is rejected.
func (c Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// Guard issues and verifies credentials with a server-held HMAC secret.
type Guard struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewGuard(secret, issuer string, ttl, refreshTTL time.Duration) (*Guard, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(secret, "secret"),
		vala.GreaterThan(int(ttl), 0, "ttl"),
		vala.GreaterThan(int(refreshTTL), 0, "refreshTTL"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "validating guard options")
	}
	return &Guard{
		secret:     []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func NewGuardFromConfig(conf *core.Config) (*Guard, error) {
	return NewGuard(conf.SecretKey, conf.AppName, conf.Server.JWTExpirationDelta, conf.Server.JWTRefreshExpirationDelta)
}

// WithClock returns a copy of the guard reading the time from `now`.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	cp := *g
	cp.now = now
	return &cp
}

func (g *Guard) TTL() time.Duration { return g.ttl }

// NewClaims builds the claims of a fresh token for p.
// origIat keeps the original issue instant across refreshes.
func (g *Guard) NewClaims(p Principal, email string, origIat ...int64) *Claims {
	now := g.now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 && origIat[0] > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    g.issuer,
			Subject:   p.UserID,
			ExpiresAt: now.Add(g.ttl).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:   oriat,
		OrganizationID: p.OrganizationID,
		Role:           p.Role,
		Email:          email,
	}
}

// Sign generates a signed JWT token string representing the claims.
func (g *Guard) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString(g.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Issue returns a new credential for p.
func (g *Guard) Issue(p Principal, email string) (string, *Claims, error) {
	claims := g.NewClaims(p, email)
	token, err := g.Sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// ParseClaims verifies the signature and expiry of `raw` and returns its claims.
// Any failure is reported as ErrUnauthenticated.
func (g *Guard) ParseClaims(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	// expiry is checked below against the guard's clock
	parser := jwt.Parser{
		ValidMethods:         []string{signingMethod.Alg()},
		SkipClaimsValidation: true,
	}
	claims := new(Claims)
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	if claims.ExpiresAt == 0 || !g.now().Before(claims.ExpiresAtTime()) {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// Authenticate resolves the Principal of a bearer credential.
// The principal is rebuilt from the token claims alone; the user record is not re-read.
func (g *Guard) Authenticate(raw string) (Principal, error) {
	claims, err := g.ParseClaims(raw)
	if err != nil {
		return Principal{}, err
	}
	return claims.Principal(), nil
}

// CanRefresh checks that the refresh window opened at the original issue instant is still open.
func (g *Guard) CanRefresh(claims *Claims) error {
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(g.refreshTTL)
	if !g.now().Before(expTime) {
		return ErrRefreshExpired
	}
	return nil
}

// Authorize decides whether p may perform an operation open to `requiredRoles`
// (any authenticated principal when empty) on a resource owned by `resourceTenantID`
// (no tenant check when empty).
func Authorize(p Principal, requiredRoles []Role, resourceTenantID string) error {
	return Policy{Roles: requiredRoles, TenantScoped: true}.Check(p, resourceTenantID)
}
