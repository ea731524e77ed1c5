package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/ratelimit"
	"github.com/edusphere/edusphere/core/user"
)

type authApi struct {
	srv      *Server
	guard    *auth.Guard
	usrSvc   *user.Service
	orgSvc   *organization.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, s *Server) {
	api := authApi{
		srv:      s,
		guard:    s.deps.Guard,
		usrSvc:   s.deps.UserSvc,
		orgSvc:   s.deps.OrgSvc,
		validate: s.deps.Validate,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	throttled := s.rateLimit(ratelimit.AuthLogin)
	ag.POST("/login", api.login, throttled)
	ag.POST("/register", api.register, throttled)
	ag.POST("/password-reset", api.resetPassword, throttled, s.rateLimit(ratelimit.EmailSend))
	ag.POST("/password-reset-confirm", api.confirmPasswordReset, throttled)

	// authed endpoints
	ag.GET("/me", api.me, s.secured(auth.Authenticated)...)
	ag.POST("/token-refresh", api.refreshToken, s.secured(auth.Authenticated)...)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.authenticate(ctx, data.Email, data.Password)
	if err != nil {
		return err
	}
	return api.respondWithToken(ctx, http.StatusOK, usr)
}

func (api *authApi) authenticate(ctx echo.Context, email, pwd string) (user.User, error) {
	usr, err := api.usrSvc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, errInvalidCredentials
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errInvalidCredentials
	}
	if !usr.IsActive() {
		return user.User{}, errAccountDeactivated
	}
	usr, err = api.usrSvc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (api *authApi) register(ctx echo.Context) error {
	var data organization.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	org, usr, err := api.orgSvc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering organization")
	}
	api.usrSvc.SendWelcome(usr, org.Name)

	return api.respondWithToken(ctx, http.StatusCreated, usr)
}

func (api *authApi) me(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)
	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), p.UserID)
	if err != nil {
		if core.IsNotFound(err) {
			return auth.ErrUnauthenticated
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// refreshToken issues a new token keeping the original issue instant, so that a session cannot be
// extended past the refresh window. The user is re-read: role changes and deactivations apply.
func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, ok := contextClaims(ctx)
	if !ok {
		return auth.ErrUnauthenticated
	}
	if err := api.guard.CanRefresh(claims); err != nil {
		return err
	}

	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if core.IsNotFound(err) {
			return auth.ErrUnauthenticated
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive() {
		return errAccountDeactivated
	}

	newClaims := api.guard.NewClaims(usr.Principal(), usr.Email, claims.OrigIssuedAt)
	token, err := api.guard.Sign(newClaims)
	if err != nil {
		return errors.Wrap(err, "signing token")
	}
	api.srv.setTokenCookie(ctx, token, newClaims.ExpiresAtTime())
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.usrSvc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || core.IsNotFound(err)) {
		// do not return errors to attackers
		api.srv.deps.Logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *authApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.usrSvc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *authApi) respondWithToken(ctx echo.Context, code int, usr user.User) error {
	token, claims, err := api.guard.Issue(usr.Principal(), usr.Email)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	api.srv.setTokenCookie(ctx, token, claims.ExpiresAtTime())
	return ctx.JSON(code, LoginResponse{Token: token, User: usr})
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
