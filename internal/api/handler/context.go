package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// actorFrom extracts the identity injected by the Auth middleware. Both keys
// must be present; their absence means the route was mounted without it.
func actorFrom(c echo.Context) (domain.Actor, error) {
	id, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if id == "" || role == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return domain.Actor{ID: id, Role: role}, nil
}

// pageFrom reads ?page and ?limit; bad or missing values fall back to defaults.
func pageFrom(c echo.Context) ports.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return ports.NewPage(page, limit)
}

// bindAndValidate decodes the body into req and runs the struct validator.
// Field errors raised while decoding are passed through as they are.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
