package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/barsea/schedpoint/internal/middleware"
)

func (s *Server) listCategories(c echo.Context) error {
	categories, err := s.deps.Categories.List(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, serializeCategories(categories))
}
