package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/class"
)

type classApi struct {
	srv      *Server
	svc      *class.Service
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, s *Server) {
	api := classApi{
		srv:      s,
		svc:      s.deps.ClassSvc,
		validate: s.deps.Validate,
	}

	cg := g.Group("/classes")
	cg.GET("", api.query, s.secured(auth.Authenticated)...)
	cg.POST("", api.create, s.secured(courseEditors)...)
	cg.GET("/:id", api.retrieve, s.secured(auth.Authenticated)...)
	cg.PUT("/:id", api.update, s.secured(courseEditors)...)
	cg.DELETE("/:id", api.destroy, s.secured(auth.AdminOnly)...)
}

// Handlers

func (api *classApi) query(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	filter := new(class.QueryFilter)
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

	classes, total, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: classes, Pagination: page.Info(total)})
}

func (api *classApi) create(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	orgID := targetOrganization(ctx, p)
	if err := api.srv.authorize(ctx, orgID); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data, orgID)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) getObject(ctx echo.Context) (class.Class, error) {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return class.Class{}, errors.Wrap(err, "finding class by ID")
	}
	if err := api.srv.authorize(ctx, cls.OrganizationID); err != nil {
		return class.Class{}, err
	}
	return cls, nil
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data class.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(api.validate, cls); err != nil {
		return err
	}

	cls, err = api.svc.Update(ctx.Request().Context(), cls, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	cls, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}
