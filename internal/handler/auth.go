package handler

import (
	"context"      // context with cancellation for DB calls
	"database/sql" // sql.ErrNoRows checks
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amrsaid/movie-catalog-api/internal/middleware"
	"github.com/amrsaid/movie-catalog-api/internal/repository"
	"github.com/amrsaid/movie-catalog-api/internal/utils"
)

// UserStore is the slice of the user repository the auth handler needs.
type UserStore interface {
	Create(ctx context.Context, email, fullName, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	EnsureRole(ctx context.Context, name string) (uint64, error)
	AssignRole(ctx context.Context, userID, roleID uint64) error
	RolesOf(ctx context.Context, userID uint64) ([]string, error)
}

// SessionStore records issued tokens and revokes them on logout.
type SessionStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	RevokeAllForUser(ctx context.Context, userID uint64) (int64, error)
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Tokens     utils.TokenSettings
	BcryptCost int
	Users      UserStore
	Sessions   SessionStore
}

func NewAuthHandler(tokens utils.TokenSettings, bcryptCost int, u UserStore, s SessionStore) *AuthHandler {
	return &AuthHandler{Tokens: tokens, BcryptCost: bcryptCost, Users: u, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	FullName string `json:"fullName" form:"fullName" validate:"required"`
	Role     string `json:"role" form:"role" validate:"required,oneof=Admin Reader"`
}

type loginReq struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type userPart struct {
	ID       uint64   `json:"id"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type loginResp struct {
	Token string   `json:"token"`
	User  userPart `json:"user"`
}

// Register creates a user, lazily creates the requested role and assigns
// it.  The role is constrained to Admin or Reader here even though the
// roles table accepts any name.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": validationMessages(err)})
	}
	if violations := utils.PasswordPolicyViolations(req.Password); len(violations) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": violations})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.FullName, req.Password, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email is already registered."})
		}
		log.Printf("auth: create user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	roleID, err := h.Users.EnsureRole(ctx, req.Role)
	if err == nil {
		err = h.Users.AssignRole(ctx, uid, roleID)
	}
	if err != nil {
		log.Printf("auth: assign role failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("User %s registered successfully with role: %s", req.Email, req.Role),
	})
}

// Login verifies credentials and issues a signed bearer token carrying the
// user's roles.  The issued token is also recorded (hashed) as a session
// so logout can invalidate it.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": validationMessages(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid email."})
		}
		log.Printf("auth: load user failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid password."})
	}

	roles, err := h.Users.RolesOf(ctx, u.ID)
	if err != nil {
		log.Printf("auth: load roles failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	access, err := utils.NewAccessToken(h.Tokens, u.ID, u.Email, u.FullName, roles)
	if err != nil {
		log.Printf("auth: issue token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if err := h.Sessions.Store(ctx, u.ID, utils.HashSessionToken(access.Token), access.Exp); err != nil {
		log.Printf("auth: store session failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, loginResp{
		Token: access.Token,
		User:  userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Roles: roles},
	})
}

// Logout revokes every session of the authenticated user and confirms the
// identity it signed out.  Runs behind JWTAuth, so an unauthenticated call
// never reaches it.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	email, _ := c.Get(middleware.CtxEmail).(string)
	roles, _ := c.Get(middleware.CtxRoles).([]string)
	primary := ""
	if len(roles) > 0 {
		primary = roles[0]
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Sessions.RevokeAllForUser(ctx, uid); err != nil {
		log.Printf("auth: revoke sessions failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "User logged out successfully.",
		"email":    email,
		"username": email,
		"role":     primary,
	})
}

// Me returns the authenticated identity extracted from the token.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get(middleware.CtxUserID),
		"email":   c.Get(middleware.CtxEmail),
		"name":    c.Get(middleware.CtxName),
		"roles":   c.Get(middleware.CtxRoles),
	})
}
