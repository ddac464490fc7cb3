package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amrsaid/movie-catalog-api/internal/utils"
)

var testTokens = utils.TokenSettings{
	Secret:   "test-secret",
	Issuer:   "movie-catalog-api",
	Audience: "movie-catalog-clients",
	TTL:      3 * time.Hour,
}

// run sends a request through JWTAuth (and optional extra middleware) into
// a handler that reports the context claims.
func run(t *testing.T, authHeader string, extra ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get(CtxUserID),
			"roles":   c.Get(CtxRoles),
		})
	}
	mws := append([]echo.MiddlewareFunc{JWTAuth(testTokens)}, extra...)
	e.GET("/protected", h, mws...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, roles []string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testTokens, 7, "u@example.com", "U", roles)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return "Bearer " + tok.Token
}

func TestJWTAuthMissingToken(t *testing.T) {
	if rec := run(t, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec := run(t, "Basic abc"); rec.Code != http.StatusUnauthorized {
		t.Errorf("non-bearer status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthInvalidToken(t *testing.T) {
	if rec := run(t, "Bearer not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	// Token signed with a different secret.
	other := testTokens
	other.Secret = "other"
	tok, err := utils.NewAccessToken(other, 7, "u@example.com", "U", []string{"Reader"})
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if rec := run(t, "Bearer "+tok.Token); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthValidToken(t *testing.T) {
	rec := run(t, bearer(t, []string{"Reader"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		held    []string
		allowed []string
		want    int
	}{
		{"admin on admin route", []string{"Admin"}, []string{"Admin"}, http.StatusOK},
		{"reader on admin route", []string{"Reader"}, []string{"Admin"}, http.StatusForbidden},
		{"reader on read route", []string{"Reader"}, []string{"Admin", "Reader"}, http.StatusOK},
		{"no roles", nil, []string{"Admin", "Reader"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := run(t, bearer(t, tc.held), RequireRole(tc.allowed...))
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	// RequireRole alone (claims never populated) must refuse.
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		RequireRole("Admin"))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
