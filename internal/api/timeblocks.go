package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/barsea/schedpoint/internal/middleware"
	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/service"
)

func (s *Server) listBlocks(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		blocks, err := s.deps.Blocks.List(c.Request().Context(), middleware.CurrentUser(c), kind, c.QueryParam("date"))
		if err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(http.StatusOK, serializeBlocks(blocks, s.loc))
	}
}

func (s *Server) showBlock(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return s.respondError(c, service.ErrNotFound)
		}

		block, err := s.deps.Blocks.Get(c.Request().Context(), middleware.CurrentUser(c), kind, id)
		if err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(http.StatusOK, serializeBlockDocument(block, s.loc))
	}
}

func (s *Server) createBlock(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req blockRequest
		if err := bindBody(c, &req); err != nil {
			return s.respondError(c, err)
		}

		block, err := s.deps.Blocks.Create(c.Request().Context(), middleware.CurrentUser(c), kind, toInput(req.params(kind.String())))
		if err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(http.StatusCreated, serializeBlockDocument(block, s.loc))
	}
}

func (s *Server) updateBlock(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return s.respondError(c, service.ErrNotFound)
		}

		var req blockRequest
		if err := bindBody(c, &req); err != nil {
			return s.respondError(c, err)
		}

		block, err := s.deps.Blocks.Update(c.Request().Context(), middleware.CurrentUser(c), kind, id, toInput(req.params(kind.String())))
		if err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(http.StatusOK, serializeBlockDocument(block, s.loc))
	}
}

func (s *Server) destroyBlock(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return s.respondError(c, service.ErrNotFound)
		}

		if err := s.deps.Blocks.Delete(c.Request().Context(), middleware.CurrentUser(c), kind, id); err != nil {
			return s.respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func toInput(p blockParams) service.BlockInput {
	return service.BlockInput{
		Memo:       p.Memo,
		StartTime:  p.StartTime,
		EndTime:    p.EndTime,
		CategoryID: p.CategoryID.int64Ptr(),
	}
}
