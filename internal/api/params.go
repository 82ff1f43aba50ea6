package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Request bodies are accepted wrapped ({"plan": {...}}) or flat.

type userParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userRequest struct {
	User *userParams `json:"user"`
	userParams
}

func (r *userRequest) params() userParams {
	if r.User != nil {
		return *r.User
	}
	return r.userParams
}

type blockParams struct {
	Memo       *string  `json:"memo"`
	StartTime  *string  `json:"start_time"`
	EndTime    *string  `json:"end_time"`
	CategoryID idParam `json:"category_id"`
}

type blockRequest struct {
	Plan   *blockParams `json:"plan"`
	Actual *blockParams `json:"actual"`
	blockParams
}

func (r *blockRequest) params(kind string) blockParams {
	switch {
	case kind == "plan" && r.Plan != nil:
		return *r.Plan
	case kind == "actual" && r.Actual != nil:
		return *r.Actual
	}
	return r.blockParams
}

// idParam accepts an id as a JSON number or numeric string. Anything else,
// null included, decodes to 0, which never matches a row. An absent key
// leaves the field unchanged.
type idParam struct {
	present bool
	value   int64
}

func (p *idParam) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v = 0
	}
	*p = idParam{present: true, value: v}
	return nil
}

func (p idParam) int64Ptr() *int64 {
	if !p.present {
		return nil
	}
	v := p.value
	return &v
}

// pathID parses the :id route parameter. A malformed id is reported as not found.
func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

var errMalformedBody = errors.New("malformed request body")

// bindBody decodes the JSON request body only; path and query are ignored.
func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}
