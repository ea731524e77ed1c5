package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/user"
)

var errNoPermsToSetRole = "not enough rights to set this role"

type userApi struct {
	srv      *Server
	svc      *user.Service
	orgSvc   *organization.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, s *Server) {
	api := userApi{
		srv:      s,
		svc:      s.deps.UserSvc,
		orgSvc:   s.deps.OrgSvc,
		validate: s.deps.Validate,
	}

	ug := g.Group("/users")
	ug.GET("", api.query, s.secured(auth.AdminOnly)...)
	ug.POST("", api.create, s.secured(auth.AdminOnly)...)
	ug.GET("/:id", api.retrieve, s.secured(auth.Authenticated)...)
	ug.PUT("/:id", api.update, s.secured(auth.Authenticated)...)
	ug.DELETE("/:id", api.destroy, s.secured(auth.AdminOnly)...)
}

// Handlers

func (api *userApi) query(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	filter.OrganizationID = targetOrganization(ctx, p)
	if err := api.srv.authorize(ctx, filter.OrganizationID); err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)
	page := bindPagination(ctx)

	users, total, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: users, Pagination: page.Info(total)})
}

func (api *userApi) create(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	orgID := p.OrganizationID
	if p.Role.IsSuper() && data.OrganizationID != "" {
		orgID = data.OrganizationID
	}
	if err := api.srv.authorize(ctx, orgID); err != nil {
		return err
	}
	// ctxUser cannot grant a role above their own
	if !p.Role.Outranks(data.Role) {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}

	org, err := api.orgSvc.GetByID(ctx.Request().Context(), orgID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "organization_id", Error: err.Error()})
		}
		return errors.Wrap(err, "finding organization by ID")
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data, org.ID)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	api.svc.SendWelcome(usr, org.Name)

	return ctx.JSON(http.StatusCreated, usr)
}

// getObject loads the user of the :id path param, visible to the user themselves and to admins.
func (api *userApi) getObject(ctx echo.Context) (user.User, error) {
	p, _ := contextPrincipal(ctx)

	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if usr.ID == p.UserID {
		return usr, nil
	}
	if err := api.srv.authorizeWith(ctx, auth.AdminOnly, usr.OrganizationID); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	usr, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	// `Role` and `Status` can only be changed by admins, and never on a higher ranked account
	if data.ChangesAccess() && !(p.Role.IsAdmin() && p.Role.Outranks(usr.Role)) {
		return errHttpForbidden
	}
	if err := data.Validate(api.validate, usr); err != nil {
		return err
	}
	if data.Role != nil && !p.Role.Outranks(*data.Role) {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: errNoPermsToSetRole})
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	if err := api.srv.authorize(ctx, usr.OrganizationID); err != nil {
		return err
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	if usr.ID == p.UserID {
		return errHttpForbidden
	}
	if !p.Role.Outranks(usr.Role) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
