package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amrsaid/movie-catalog-api/internal/middleware"
	"github.com/amrsaid/movie-catalog-api/internal/repository"
	"github.com/amrsaid/movie-catalog-api/internal/utils"
)

var testTokens = utils.TokenSettings{
	Secret:   "test-secret",
	Issuer:   "movie-catalog-api",
	Audience: "movie-catalog-clients",
	TTL:      3 * time.Hour,
}

// --- In-memory stores ---

type memUserStore struct {
	nextID  uint64
	users   map[string]repository.User // by email
	roles   map[string]uint64
	granted map[uint64][]string
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		nextID:  1,
		users:   map[string]repository.User{},
		roles:   map[string]uint64{},
		granted: map[uint64][]string{},
	}
}

func (m *memUserStore) Create(_ context.Context, email, fullName, password string, cost int) (uint64, error) {
	if _, ok := m.users[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := repository.User{ID: m.nextID, Email: email, FullName: fullName, PasswordHash: hash}
	m.users[email] = u
	m.nextID++
	return u.ID, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (repository.User, error) {
	u, ok := m.users[email]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memUserStore) EnsureRole(_ context.Context, name string) (uint64, error) {
	if id, ok := m.roles[name]; ok {
		return id, nil
	}
	id := uint64(len(m.roles) + 1)
	m.roles[name] = id
	return id, nil
}

func (m *memUserStore) AssignRole(_ context.Context, userID, roleID uint64) error {
	for name, id := range m.roles {
		if id == roleID {
			m.granted[userID] = append(m.granted[userID], name)
		}
	}
	return nil
}

func (m *memUserStore) RolesOf(_ context.Context, userID uint64) ([]string, error) {
	return m.granted[userID], nil
}

type memSessionStore struct {
	stored  []string // token hashes
	revoked map[uint64]int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{revoked: map[uint64]int{}}
}

func (m *memSessionStore) Store(_ context.Context, _ uint64, tokenHash string, _ time.Time) error {
	m.stored = append(m.stored, tokenHash)
	return nil
}

func (m *memSessionStore) RevokeAllForUser(_ context.Context, userID uint64) (int64, error) {
	m.revoked[userID]++
	return int64(len(m.stored)), nil
}

// --- helpers ---

func newAuthEnv() (*echo.Echo, *AuthHandler, *memUserStore, *memSessionStore) {
	e := echo.New()
	e.Validator = NewValidator()
	users := newMemUserStore()
	sessions := newMemSessionStore()
	h := NewAuthHandler(testTokens, 4, users, sessions)
	return e, h, users, sessions
}

func postJSON(e *echo.Echo, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = handler(c)
	return rec
}

// --- tests ---

func TestRegisterThenDuplicateEmail(t *testing.T) {
	e, h, _, _ := newAuthEnv()
	body := `{"email":"a@b.com","password":"Secret!x","fullName":"Alice","role":"Reader"}`

	rec := postJSON(e, h.Register, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("first register status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "registered successfully with role: Reader") {
		t.Errorf("unexpected confirmation: %s", rec.Body.String())
	}

	// Registering twice with the same email always fails the second time.
	rec = postJSON(e, h.Register, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already registered") {
		t.Errorf("unexpected duplicate message: %s", rec.Body.String())
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	e, h, _, _ := newAuthEnv()
	rec := postJSON(e, h.Register,
		`{"email":"a@b.com","password":"weak","fullName":"Alice","role":"Reader"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Errors) == 0 {
		t.Errorf("want a list of policy violations, got %s", rec.Body.String())
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	e, h, _, _ := newAuthEnv()
	rec := postJSON(e, h.Register,
		`{"email":"a@b.com","password":"Secret!x","fullName":"Alice","role":"Root"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginFlows(t *testing.T) {
	e, h, _, sessions := newAuthEnv()
	reg := `{"email":"a@b.com","password":"Secret!x","fullName":"Alice","role":"Admin"}`
	if rec := postJSON(e, h.Register, reg); rec.Code != http.StatusOK {
		t.Fatalf("register failed: %s", rec.Body.String())
	}

	// Unknown email.
	rec := postJSON(e, h.Login, `{"email":"nobody@b.com","password":"Secret!x"}`)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid email.") {
		t.Errorf("unknown email: status %d body %s", rec.Code, rec.Body.String())
	}

	// Wrong password.
	rec = postJSON(e, h.Login, `{"email":"a@b.com","password":"Wrong!pw"}`)
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid password.") {
		t.Errorf("wrong password: status %d body %s", rec.Code, rec.Body.String())
	}

	// Success: token decodes and carries exactly the assigned roles.
	rec = postJSON(e, h.Login, `{"email":"a@b.com","password":"Secret!x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID    uint64   `json:"id"`
			Email string   `json:"email"`
			Roles []string `json:"roles"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	claims, err := utils.ParseAccessToken(testTokens, resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "Admin" {
		t.Errorf("token roles = %v, want exactly [Admin]", claims.Roles)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 3*time.Hour {
		t.Errorf("token validity = %s, want 3h", got)
	}
	if len(sessions.stored) != 1 || sessions.stored[0] != utils.HashSessionToken(resp.Token) {
		t.Error("login did not record the session hash")
	}
}

func TestLogout(t *testing.T) {
	e, h, _, sessions := newAuthEnv()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, uint64(9))
	c.Set(middleware.CtxEmail, "a@b.com")
	c.Set(middleware.CtxRoles, []string{"Reader"})

	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["email"] != "a@b.com" || resp["role"] != "Reader" {
		t.Errorf("confirmation = %v", resp)
	}
	if sessions.revoked[9] != 1 {
		t.Error("sessions were not revoked")
	}
}

func TestLogoutWithoutIdentity(t *testing.T) {
	e, h, _, _ := newAuthEnv()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginAcceptsFormFields(t *testing.T) {
	e, h, _, _ := newAuthEnv()
	reg := `{"email":"a@b.com","password":"Secret!x","fullName":"Alice","role":"Reader"}`
	if rec := postJSON(e, h.Register, reg); rec.Code != http.StatusOK {
		t.Fatalf("register failed: %s", rec.Body.String())
	}

	form := "email=a%40b.com&password=Secret%21x"
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h.Login(c)
	if rec.Code != http.StatusOK {
		t.Errorf("form login status = %d, body %s", rec.Code, rec.Body.String())
	}
}
