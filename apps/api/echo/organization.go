package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/organization"
)

type organizationApi struct {
	srv      *Server
	svc      *organization.Service
	validate *validator.Validate
}

func registerOrganizationAPI(g *echo.Group, s *Server) {
	api := organizationApi{
		srv:      s,
		svc:      s.deps.OrgSvc,
		validate: s.deps.Validate,
	}

	og := g.Group("/organizations")
	og.GET("", api.query, s.secured(auth.SuperAdminOnly)...)
	og.POST("", api.create, s.secured(auth.SuperAdminOnly)...)
	og.GET("/:id", api.retrieve, s.secured(auth.AdminOnly)...)
	og.PUT("/:id", api.update, s.secured(auth.AdminOnly)...)
	og.DELETE("/:id", api.destroy, s.secured(auth.SuperAdminOnly)...)

	g.GET("/admin/stats", api.stats, s.secured(auth.AdminOnly)...)
}

// Handlers

func (api *organizationApi) query(ctx echo.Context) error {
	filter := new(organization.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)
	page := bindPagination(ctx)

	orgs, total, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying organizations")
	}
	if orgs == nil {
		orgs = []organization.Organization{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: orgs, Pagination: page.Info(total)})
}

func (api *organizationApi) create(ctx echo.Context) error {
	var data organization.NewOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrganization")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	org, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating organization")
	}
	return ctx.JSON(http.StatusCreated, org)
}

// getObject loads the organization of the :id path param. The tenant check runs first, so a
// foreign organization is denied whether it exists or not.
func (api *organizationApi) getObject(ctx echo.Context) (organization.Organization, error) {
	id := ctx.Param("id")
	if err := api.srv.authorize(ctx, id); err != nil {
		return organization.Organization{}, err
	}
	org, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return organization.Organization{}, errors.Wrap(err, "finding organization by ID")
	}
	return org, nil
}

func (api *organizationApi) retrieve(ctx echo.Context) error {
	org, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, org)
}

func (api *organizationApi) update(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	org, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data organization.UpdateOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOrganization")
	}
	// suspending an organization is a platform decision
	if data.Status != nil && !p.Role.IsSuper() {
		return errHttpForbidden
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	org, err = api.svc.Update(ctx.Request().Context(), org, data)
	if err != nil {
		return errors.Wrap(err, "updating organization")
	}
	return ctx.JSON(http.StatusOK, org)
}

func (api *organizationApi) destroy(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	org, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if org.ID == p.OrganizationID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), org.ID); err != nil {
		return errors.Wrap(err, "deleting organization")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *organizationApi) stats(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	orgID := targetOrganization(ctx, p)
	if err := api.srv.authorize(ctx, orgID); err != nil {
		return err
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), orgID)
	if err != nil {
		return errors.Wrap(err, "computing organization stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
