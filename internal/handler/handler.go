package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"civicfix/internal/auth"
	"civicfix/internal/errors"
)

// identity pulls the resolved caller off the request context. The identity
// middleware guarantees it for secured routes; a missing identity means the
// route was wired outside the secured group by mistake.
func identity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.GetIdentity(c)
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing or invalid credentials",
			Code:  "UNAUTHORIZED",
		})
	}
	return id, nil
}

// respondError maps a domain error onto the wire format.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message, code string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
