package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/barsea/schedpoint/internal/auth"
	"github.com/barsea/schedpoint/internal/middleware"
	"github.com/barsea/schedpoint/internal/service"
)

type signupFailure struct {
	Status struct {
		Message string `json:"message"`
	} `json:"status"`
}

// signup handles POST /users.
func (s *Server) signup(c echo.Context) error {
	var req userRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	p := req.params()

	user, err := s.deps.Auth.Signup(c.Request().Context(), p.Name, p.Email, p.Password)
	if err != nil {
		var verrs auth.ValidationErrors
		if !errors.As(err, &verrs) {
			return s.respondError(c, err)
		}
		var body signupFailure
		body.Status.Message = "User couldn't be created successfully. " + verrs.Sentence()
		return c.JSON(http.StatusUnprocessableEntity, body)
	}

	return c.JSON(http.StatusCreated, serializeUser(user))
}

// login handles POST /users/sign_in. A caller already holding a live token
// gets its user back with a fresh token and no password check.
func (s *Server) login(c echo.Context) error {
	if user := middleware.CurrentUser(c); user != nil {
		token, err := s.deps.Auth.IssueToken(user)
		if err != nil {
			return s.respondError(c, err)
		}
		c.Response().Header().Set(echo.HeaderAuthorization, "Bearer "+token)
		return c.JSON(http.StatusOK, serializeUser(user))
	}

	var req userRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	p := req.params()

	user, token, err := s.deps.Auth.Login(c.Request().Context(), p.Email, p.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, statusMessage{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password.",
		})
	}
	if err != nil {
		return s.respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderAuthorization, "Bearer "+token)
	return c.JSON(http.StatusOK, serializeUser(user))
}

// logout handles DELETE /users/sign_out by revoking every token of the caller.
func (s *Server) logout(c echo.Context) error {
	noSession := statusMessage{
		Status:  http.StatusUnauthorized,
		Message: "Couldn't find an active session.",
	}

	token := middleware.CurrentToken(c)
	if token == "" {
		return c.JSON(http.StatusUnauthorized, noSession)
	}

	err := s.deps.Auth.Logout(c.Request().Context(), token)
	if errors.Is(err, service.ErrNoSession) {
		return c.JSON(http.StatusUnauthorized, noSession)
	}
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, statusMessage{
		Status:  http.StatusOK,
		Message: "Logged out successfully.",
	})
}
