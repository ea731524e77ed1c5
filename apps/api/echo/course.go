package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusphere/edusphere/core/auth"
	"github.com/edusphere/edusphere/core/course"
)

// courseEditors may create and edit courses; teachers only their own.
var courseEditors = auth.Require(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleTeacher)

type courseApi struct {
	srv      *Server
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, s *Server) {
	api := courseApi{
		srv:      s,
		svc:      s.deps.CourseSvc,
		validate: s.deps.Validate,
	}

	cg := g.Group("/courses")
	cg.GET("", api.query, s.secured(auth.Authenticated)...)
	cg.POST("", api.create, s.secured(courseEditors)...)
	cg.GET("/:id", api.retrieve, s.secured(auth.Authenticated)...)
	cg.PUT("/:id", api.update, s.secured(courseEditors)...)
	cg.DELETE("/:id", api.destroy, s.secured(auth.AdminOnly)...)
}

// seesDrafts reports whether p may see unpublished courses.
func seesDrafts(p auth.Principal) bool {
	return p.Role.IsAdmin() || p.Role == auth.RoleTeacher
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	filter.OrganizationID = targetOrganization(ctx, p)
	if err := api.srv.authorize(ctx, filter.OrganizationID); err != nil {
		return err
	}
	if !seesDrafts(p) {
		published := true
		filter.IsPublished = &published
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)
	page := bindPagination(ctx)

	courses, total, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings, page)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Results: courses, Pagination: page.Info(total)})
}

func (api *courseApi) create(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	orgID := targetOrganization(ctx, p)
	if err := api.srv.authorize(ctx, orgID); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data, orgID, p)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) getObject(ctx echo.Context) (course.Course, error) {
	p, _ := contextPrincipal(ctx)

	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	if err := api.srv.authorize(ctx, crs.OrganizationID); err != nil {
		return course.Course{}, err
	}
	if !crs.IsPublished && !seesDrafts(p) {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	p, _ := contextPrincipal(ctx)

	crs, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if !crs.CanEdit(p) {
		return errHttpForbidden
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}
