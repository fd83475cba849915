package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/transfer"
)

const requiredText = "this field is required"

type responseApi struct {
	forms *form.Service
	svc   *response.Service
}

func registerResponseAPI(g *echo.Group, jwt echo.MiddlewareFunc, forms *form.Service, svc *response.Service) {
	api := responseApi{forms: forms, svc: svc}

	// per-route middleware: a group on "/forms/:id" would shadow the form detail routes
	g.GET("/forms/:id/response", api.retrieveMine, jwt)
	g.PUT("/forms/:id/response", api.save, jwt)
	g.GET("/forms/:id/responses", api.query, jwt, adminMiddleware())
	g.GET("/forms/:id/responses/export", api.export, jwt, adminMiddleware())
}

// Handlers

func (api *responseApi) retrieveMine(ctx echo.Context) error {
	f, err := getVisibleForm(ctx, api.forms)
	if err != nil {
		return err
	}
	caller, err := getCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}

	r, ok, err := api.svc.GetByUserAndForm(ctx.Request().Context(), caller.UserID, f.ID)
	if err != nil {
		return errors.Wrap(err, "getting response")
	}
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, r)
}

// save stores a draft, or submits once every required field that was not jumped over is answered.
func (api *responseApi) save(ctx echo.Context) error {
	f, err := getVisibleForm(ctx, api.forms)
	if err != nil {
		return err
	}
	caller, err := getCaller(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context caller")
	}

	var data response.SaveRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}

	if !data.AsDraft {
		if missing := form.MissingRequired(f, data.Values); len(missing) > 0 {
			fldErrs := make([]core.FieldError, 0, len(missing))
			for _, id := range missing {
				fldErrs = append(fldErrs, core.FieldError{Field: id, Error: requiredText})
			}
			return core.NewValidationError(nil, fldErrs...)
		}
	}

	r, err := api.svc.Save(ctx.Request().Context(), caller.UserID, f.ID, data.Values, data.AsDraft)
	if err != nil {
		return errors.Wrap(err, "saving response")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *responseApi) query(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx)

	rs, err := api.svc.ListByForm(ctx.Request().Context(), ctx.Param("id"), ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "listing responses")
	}
	return ctx.JSON(http.StatusOK, rs)
}

func (api *responseApi) export(ctx echo.Context) error {
	f, err := api.forms.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting form")
	}

	var ord Ordering
	ord.Bind(ctx)
	rs, err := api.svc.ListByForm(ctx.Request().Context(), f.ID, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "listing responses")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "responses-"+f.ID+".csv"))
	res.WriteHeader(http.StatusOK)
	return errors.Wrap(transfer.ExportResponses(res, f, rs), "exporting responses")
}
