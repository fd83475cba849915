package echoapi

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core/transfer"
)

// Rollover scopes
const (
	scopeForms   = "forms"
	scopeUsers   = "users"
	scopeNetwork = "network"
)

type rolloverRequest struct {
	From   string   `json:"from" validate:"required"`
	To     string   `json:"to" validate:"required,nefield=From"`
	Scopes []string `json:"scopes" validate:"dive,oneof=forms users network"`
}

type transferApi struct {
	importer *transfer.Importer
	rollover *transfer.Rollover
	validate *validator.Validate
}

func registerTransferAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	importer *transfer.Importer,
	rollover *transfer.Rollover,
	validate *validator.Validate,
) {
	api := transferApi{importer: importer, rollover: rollover, validate: validate}

	g.POST("/rollover", api.rollOver, jwt, adminMiddleware())
	g.POST("/import/:entity", api.importEntity, jwt, adminMiddleware())
}

// Handlers

// rollOver copies forms, users and/or the network of a year into the next one. Every scope is copied by default.
func (api *transferApi) rollOver(ctx echo.Context) error {
	var data rolloverRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to rolloverRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if len(data.Scopes) == 0 {
		data.Scopes = []string{scopeNetwork, scopeUsers, scopeForms}
	}

	reqCtx := ctx.Request().Context()
	results := make(map[string]transfer.ImportResult, len(data.Scopes))
	for _, scope := range data.Scopes {
		var (
			res transfer.ImportResult
			err error
		)
		switch scope {
		case scopeForms:
			res, err = api.rollover.CopyFormsAcrossYear(reqCtx, data.From, data.To)
		case scopeUsers:
			res, err = api.rollover.CopyUsersAcrossYear(reqCtx, data.From, data.To)
		case scopeNetwork:
			res, err = api.rollover.CopyNetworkAcrossYear(reqCtx, data.From, data.To)
		}
		if err != nil {
			return errors.Wrapf(err, "rolling %s over", scope)
		}
		results[scope] = res
	}
	return ctx.JSON(http.StatusOK, results)
}

// importEntity loads the CSV sent as the multipart `file`, or as the raw request body.
func (api *transferApi) importEntity(ctx echo.Context) error {
	entity := ctx.Param("entity")
	if !isEntity(entity) {
		return errors.Wrap(transfer.ErrUnknownEntity, entity)
	}

	var body io.Reader = ctx.Request().Body
	if fh, err := ctx.FormFile("file"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer func() { _ = file.Close() }()
		body = file
	}

	res := api.importer.Import(ctx.Request().Context(), entity, body, ctx.QueryParam("year"))
	return ctx.JSON(http.StatusOK, res)
}

func isEntity(entity string) bool {
	for _, e := range transfer.Entities {
		if e == entity {
			return true
		}
	}
	return false
}
