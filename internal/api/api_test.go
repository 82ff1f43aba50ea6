package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/barsea/schedpoint/internal/auth"
	"github.com/barsea/schedpoint/internal/metrics"
	"github.com/barsea/schedpoint/internal/models"
	"github.com/barsea/schedpoint/internal/service"
	"github.com/barsea/schedpoint/internal/storage/sqlite"
)

var tokyo = time.FixedZone("JST", 9*60*60)

type testEnv struct {
	t          *testing.T
	server     *Server
	categories []*models.Category
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	store, err := sqlite.New(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name), tokyo)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cats := service.NewCategoryService(store, logger)
	seeded, err := cats.Seed(t.Context())
	require.NoError(t, err)

	if opts.Location == nil {
		opts.Location = tokyo
	}
	server := New(Deps{
		Auth: service.NewAuthService(
			auth.NewPasswordAuthenticator(store, auth.WithBcryptCost(bcrypt.MinCost)),
			auth.NewJWTManager("test-secret", time.Hour),
			store, m, logger,
		),
		Blocks:     service.NewTimeBlockService(store, tokyo, m, logger),
		Categories: cats,
		Health:     store,
		Metrics:    m,
		Gatherer:   reg,
		Logger:     logger,
	}, opts)

	return &testEnv{t: t, server: server, categories: seeded}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

// signupAndLogin registers a user and returns its bearer token.
func (e *testEnv) signupAndLogin(email string) string {
	e.t.Helper()

	rec := e.do(http.MethodPost, "/users", "", map[string]any{
		"user": map[string]string{"name": "User " + email, "email": email, "password": "password"},
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/users/sign_in", "", map[string]any{
		"user": map[string]string{"email": email, "password": "password"},
	})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	token, err := auth.BearerToken(rec.Header().Get(echo.HeaderAuthorization))
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) category(name string) *models.Category {
	for _, c := range e.categories {
		if c.Name == name {
			return c
		}
	}
	e.t.Fatalf("no category %q", name)
	return nil
}

type blockDoc struct {
	Data struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			ID        int64   `json:"id"`
			Memo      *string `json:"memo"`
			StartTime string  `json:"start_time"`
			EndTime   string  `json:"end_time"`
		} `json:"attributes"`
		Relationships struct {
			Category struct {
				Data struct {
					ID   string `json:"id"`
					Type string `json:"type"`
				} `json:"data"`
			} `json:"category"`
		} `json:"relationships"`
	} `json:"data"`
	Included []categoryResource `json:"included"`
}

type listDoc struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Included []categoryResource `json:"included"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createPlan(token, memo, start, end string, categoryID int64) blockDoc {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/plans", token, map[string]any{
		"plan": map[string]any{"memo": memo, "start_time": start, "end_time": end, "category_id": categoryID},
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[blockDoc](e.t, rec)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodPost, "/users", "", map[string]any{
		"user": map[string]string{"name": "Hanako", "email": "Hanako@Example.com", "password": "password"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAuthorization))

	var doc document[userResource]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "user", doc.Data.Type)
	assert.Equal(t, "Hanako", doc.Data.Attributes.Name)
	assert.Equal(t, "hanako@example.com", doc.Data.Attributes.Email)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSignupFailure(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodPost, "/users", "", map[string]any{
		"user": map[string]string{"email": "not-an-email", "password": "123"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"status":{"message":"User couldn't be created successfully. Name can't be blank, Email is invalid, and Password is too short (minimum is 6 characters)"}}`, rec.Body.String())
}

func TestSignupFlatBody(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodPost, "/users", "", map[string]string{"name": "Flat", "email": "flat@example.com", "password": "password"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")
	assert.NotEmpty(t, token)

	rec := env.do(http.MethodPost, "/users/sign_in", "", map[string]any{
		"user": map[string]string{"email": "alice@example.com", "password": "wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"status":401,"message":"Invalid email or password."}`, rec.Body.String())
}

func TestLoginWhileSignedIn(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodPost, "/users/sign_in", token, map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderAuthorization), "Bearer ")
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodDelete, "/users/sign_out", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"Logged out successfully."}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/v1/categories", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodDelete, "/users/sign_out", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"status":401,"message":"Couldn't find an active session."}`, rec.Body.String())
}

func TestLogoutWithoutToken(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodDelete, "/users/sign_out", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodDelete, "/users/sign_out", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"status":401,"message":"Couldn't find an active session."}`, rec.Body.String())
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t, Options{LoginRate: 0.001, LoginBurst: 2})
	body := map[string]any{"user": map[string]string{"email": "x@example.com", "password": "password"}}

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/users/sign_in", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/users/sign_in", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodPost, "/users/sign_in", "", body).Code)
}

func (e *testEnv) signInFrom(forwardedFor string) int {
	e.t.Helper()
	body := strings.NewReader(`{"user":{"email":"x@example.com","password":"password"}}`)
	req := httptest.NewRequest(http.MethodPost, "/users/sign_in", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec.Code
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	env := newTestEnv(t, Options{LoginRate: 0.001, LoginBurst: 2})

	var codes []int
	for i := 1; i <= 6; i++ {
		codes = append(codes, env.signInFrom(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, []int{401, 401, 429, 429, 429, 429}, codes)
}

func TestLoginRateLimitTrustedProxy(t *testing.T) {
	// httptest requests come from 192.0.2.1.
	_, proxy, err := net.ParseCIDR("192.0.2.0/24")
	require.NoError(t, err)
	env := newTestEnv(t, Options{LoginRate: 0.001, LoginBurst: 2, TrustedProxies: []*net.IPNet{proxy}})

	for i := 1; i <= 4; i++ {
		assert.Equal(t, http.StatusUnauthorized, env.signInFrom(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, http.StatusUnauthorized, env.signInFrom("10.0.0.9"))
	assert.Equal(t, http.StatusUnauthorized, env.signInFrom("10.0.0.9"))
	assert.Equal(t, http.StatusTooManyRequests, env.signInFrom("10.0.0.9"))
}

func TestResourcesRequireAuth(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, path := range []string{"/api/v1/categories", "/api/v1/plans", "/api/v1/plans/1", "/api/v1/actuals"} {
		rec := env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"error":"You need to sign in or sign up before continuing."}`, rec.Body.String())
	}

	rec := env.do(http.MethodGet, "/api/v1/plans", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodGet, "/api/v1/categories", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decode[document[[]categoryResource]](t, rec)
	require.Len(t, doc.Data, len(service.DefaultCategories))
	assert.Equal(t, "category", doc.Data[0].Type)
	assert.Equal(t, "睡眠", doc.Data[0].Attributes.Name)
	assert.Equal(t, "fas bed", doc.Data[0].Attributes.Icon)
	for i := 1; i < len(doc.Data); i++ {
		assert.Less(t, doc.Data[i-1].Attributes.ID, doc.Data[i].Attributes.ID)
	}
}

func TestCreatePlan(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")
	work := env.category("仕事")

	doc := env.createPlan(token, "meeting", "2025-01-10T23:00", "2025-01-11T01:00", work.ID)

	assert.Equal(t, "plan", doc.Data.Type)
	assert.Equal(t, fmt.Sprint(doc.Data.Attributes.ID), doc.Data.ID)
	require.NotNil(t, doc.Data.Attributes.Memo)
	assert.Equal(t, "meeting", *doc.Data.Attributes.Memo)
	assert.Equal(t, "2025-01-10T23:00:00.000+09:00", doc.Data.Attributes.StartTime)
	assert.Equal(t, "2025-01-11T01:00:00.000+09:00", doc.Data.Attributes.EndTime)
	assert.Equal(t, fmt.Sprint(work.ID), doc.Data.Relationships.Category.Data.ID)
	require.Len(t, doc.Included, 1)
	assert.Equal(t, "仕事", doc.Included[0].Attributes.Name)
}

func TestCreatePlanValidation(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodPost, "/api/v1/plans", token, map[string]any{
		"plan": map[string]any{"memo": strings.Repeat("a", 101), "start_time": "2025-01-10T12:00", "end_time": "2025-01-10T11:00", "category_id": "9999"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":["Memo is too long (maximum is 100 characters)","Start time must be before end time","Category must exist"]}`, rec.Body.String())
}

func TestCreatePlanRejectsSubMillisecondTimes(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodPost, "/api/v1/plans", token, map[string]any{
		"plan": map[string]any{"start_time": "2025-01-10T10:00:00.0005", "end_time": "2025-01-10T11:00", "category_id": env.category("仕事").ID},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":["Start time is invalid"]}`, rec.Body.String())
}

func TestCreateActualStringCategoryID(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")
	meal := env.category("食事")

	rec := env.do(http.MethodPost, "/api/v1/actuals", token, map[string]any{
		"actual": map[string]any{"start_time": "2025-01-10T12:00", "end_time": "2025-01-10T12:30", "category_id": fmt.Sprint(meal.ID)},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	doc := decode[blockDoc](t, rec)
	assert.Equal(t, "actual", doc.Data.Type)
	assert.Nil(t, doc.Data.Attributes.Memo)
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodPost, "/api/v1/plans", token, `{"plan": {`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"malformed request body"}`, rec.Body.String())
}

func TestListPlansByDay(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.signupAndLogin("alice@example.com")
	bob := env.signupAndLogin("bob@example.com")
	work, meal := env.category("仕事"), env.category("食事")

	midnight := env.createPlan(alice, "meeting", "2025-01-10T23:00", "2025-01-11T01:00", work.ID)
	breakfast := env.createPlan(alice, "", "2025-01-11T08:00", "2025-01-11T08:30", meal.ID)
	standup := env.createPlan(alice, "", "2025-01-11T09:00", "2025-01-11T09:15", work.ID)
	env.createPlan(bob, "", "2025-01-11T09:00", "2025-01-11T10:00", work.ID)

	rec := env.do(http.MethodGet, "/api/v1/plans?date=2025-01-11", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[listDoc](t, rec)

	require.Len(t, doc.Data, 3)
	assert.Equal(t, []string{midnight.Data.ID, breakfast.Data.ID, standup.Data.ID},
		[]string{doc.Data[0].ID, doc.Data[1].ID, doc.Data[2].ID})
	require.Len(t, doc.Included, 2)
	assert.Equal(t, "仕事", doc.Included[0].Attributes.Name)
	assert.Equal(t, "食事", doc.Included[1].Attributes.Name)

	rec = env.do(http.MethodGet, "/api/v1/plans?date=2025-01-10", alice, nil)
	assert.Len(t, decode[listDoc](t, rec).Data, 1)

	rec = env.do(http.MethodGet, "/api/v1/plans?date=2025-01-12", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[],"included":[]}`, rec.Body.String())
}

func TestListInvalidDate(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodGet, "/api/v1/actuals?date=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid date"}`, rec.Body.String())
}

func TestShowPlan(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.signupAndLogin("alice@example.com")
	bob := env.signupAndLogin("bob@example.com")
	created := env.createPlan(alice, "mine", "2025-01-10T09:00", "2025-01-10T10:00", env.category("仕事").ID)

	rec := env.do(http.MethodGet, "/api/v1/plans/"+created.Data.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Data.ID, decode[blockDoc](t, rec).Data.ID)

	for _, path := range []string{"/api/v1/plans/" + created.Data.ID, "/api/v1/plans/9999", "/api/v1/plans/abc"} {
		rec = env.do(http.MethodGet, path, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"Record not found"}`, rec.Body.String())
	}
}

func TestActualsHaveNoShow(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := env.signupAndLogin("alice@example.com")

	rec := env.do(http.MethodGet, "/api/v1/actuals/1", token, nil)
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)
}

func TestUpdatePlan(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.signupAndLogin("alice@example.com")
	bob := env.signupAndLogin("bob@example.com")
	created := env.createPlan(alice, "draft", "2025-01-10T09:00", "2025-01-10T10:00", env.category("仕事").ID)
	path := "/api/v1/plans/" + created.Data.ID

	rec := env.do(http.MethodPut, path, alice, map[string]any{"plan": map[string]any{"memo": "final"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	doc := decode[blockDoc](t, rec)
	assert.Equal(t, "final", *doc.Data.Attributes.Memo)
	assert.Equal(t, created.Data.Attributes.StartTime, doc.Data.Attributes.StartTime)

	rec = env.do(http.MethodPatch, path, alice, map[string]any{"plan": map[string]any{"end_time": "2025-01-10T08:00"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":["Start time must be before end time"]}`, rec.Body.String())

	rec = env.do(http.MethodPut, path, alice, `{"plan":{"category_id":null}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":["Category must exist"]}`, rec.Body.String())

	rec = env.do(http.MethodPut, path, bob, map[string]any{"plan": map[string]any{"memo": "stolen"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, path, alice, nil)
	assert.Equal(t, "final", *decode[blockDoc](t, rec).Data.Attributes.Memo)
}

func TestDestroyActual(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.signupAndLogin("alice@example.com")
	bob := env.signupAndLogin("bob@example.com")

	rec := env.do(http.MethodPost, "/api/v1/actuals", alice, map[string]any{
		"actual": map[string]any{"start_time": "2025-01-10T09:00", "end_time": "2025-01-10T10:00", "category_id": env.category("仕事").ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	path := "/api/v1/actuals/" + decode[blockDoc](t, rec).Data.ID

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, bob, nil).Code)

	rec = env.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, alice, nil).Code)
}

func TestCORSExposesAuthorization(t *testing.T) {
	env := newTestEnv(t, Options{AllowOrigin: "https://app.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/users/sign_in", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, echo.HeaderAuthorization, rec.Header().Get(echo.HeaderAccessControlExposeHeaders))
}

func TestHealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `schedpoint_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}
