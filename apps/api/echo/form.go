package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
)

type (
	sectionResponse struct {
		Title  string       `json:"title"`
		Fields []form.Field `json:"fields"`
	}

	navigateRequest struct {
		Page    int        `json:"page" validate:"gte=0"`
		FieldID string     `json:"field_id" validate:"required"`
		Value   form.Value `json:"value"`
	}

	navigateResponse struct {
		Page    int             `json:"page"`
		Total   int             `json:"total"`
		Section sectionResponse `json:"section"`
	}
)

func newSectionResponse(s form.Section) sectionResponse {
	return sectionResponse{Title: s.Title(), Fields: s.Fields}
}

type formApi struct {
	svc      *form.Service
	validate *validator.Validate
}

func registerFormAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *form.Service, validate *validator.Validate) {
	api := formApi{svc: svc, validate: validate}

	fg := g.Group("/forms", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create, adminMiddleware())

	// detail endpoints
	dg := fg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.POST("/publish", api.publish, adminMiddleware())
	dg.POST("/archive", api.archive, adminMiddleware())
	dg.GET("/sections", api.sections)
	dg.POST("/navigate", api.navigate)
}

// getVisibleForm returns the form of the `:id` path param, as long as the caller may see it.
// Hidden forms are reported as missing.
func getVisibleForm(ctx echo.Context, svc *form.Service) (form.Form, error) {
	caller, err := getCaller(ctx)
	if err != nil {
		return form.Form{}, errors.Wrap(err, "getting context caller")
	}
	f, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return form.Form{}, errors.Wrap(err, "getting form")
	}
	if !form.CanSee(f, caller) {
		return form.Form{}, errHttpNotFound
	}
	return f, nil
}

// Handlers

func (api *formApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}
	forms, err := api.svc.Visible(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "querying visible forms")
	}
	return ctx.JSON(http.StatusOK, forms)
}

func (api *formApi) create(ctx echo.Context) error {
	var data form.NewForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewForm")
	}
	f, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating form")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *formApi) retrieve(ctx echo.Context) error {
	f, err := getVisibleForm(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *formApi) update(ctx echo.Context) error {
	var data form.NewForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewForm")
	}
	f, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating form")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *formApi) publish(ctx echo.Context) error {
	f, err := api.svc.Publish(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "publishing form")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *formApi) archive(ctx echo.Context) error {
	f, err := api.svc.Archive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "archiving form")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *formApi) sections(ctx echo.Context) error {
	f, err := getVisibleForm(ctx, api.svc)
	if err != nil {
		return err
	}
	sections := form.Partition(f.Fields)
	resp := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		resp = append(resp, newSectionResponse(s))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// navigate returns the page to show once a field of the current page changed.
func (api *formApi) navigate(ctx echo.Context) error {
	f, err := getVisibleForm(ctx, api.svc)
	if err != nil {
		return err
	}

	var data navigateRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to navigateRequest")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	sections := form.Partition(f.Fields)
	if data.Page >= len(sections) {
		return core.NewValidationError(nil, core.FieldError{Field: "page", Error: "page out of range"})
	}
	fld, ok := f.Field(data.FieldID)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "field_id", Error: "unknown field"})
	}
	// a cleared field carries no value
	if data.Value.Kind() != "" {
		if err = form.CheckValue(fld, data.Value); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "value", Error: err.Error()})
		}
	}

	page := form.NextPage(sections, data.Page, fld, data.Value)
	return ctx.JSON(http.StatusOK, navigateResponse{
		Page:    page,
		Total:   len(sections),
		Section: newSectionResponse(sections[page]),
	})
}
