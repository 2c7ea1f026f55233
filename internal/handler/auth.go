package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/rental-availability/internal/clock"
	"github.com/iliyamo/rental-availability/internal/config"
	"github.com/iliyamo/rental-availability/internal/middleware"
	"github.com/iliyamo/rental-availability/internal/model"
	"github.com/iliyamo/rental-availability/internal/repository"
	"github.com/iliyamo/rental-availability/internal/utils"
)

type UserStore interface {
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler issues and revokes access/refresh token pairs.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
	Clock  clock.Clock
	Log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, clk clock.Clock, log *zap.Logger) *AuthHandler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Clock: clk, Log: log}
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // register only: OWNER or CUSTOMER
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

const dbTimeout = 5 * time.Second

func (h *AuthHandler) bindCredentials(c echo.Context) (credentialsReq, bool) {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return req, false
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return req, req.Email != "" && req.Password != ""
}

// issue creates a token pair for u and persists the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u userPart) (authResp, error) {
	now := h.Clock.Now()
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin, now)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays, now)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

func (h *AuthHandler) internal(c echo.Context, msg string, err error) error {
	h.Log.Error(msg, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// Register: POST /v1/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	req, ok := h.bindCredentials(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleOwner {
		role = model.RoleCustomer
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, role, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if err != nil {
		return h.internal(c, "create user failed", err)
	}
	resp, err := h.issue(ctx, userPart{ID: uid, Email: req.Email, Role: role})
	if err != nil {
		return h.internal(c, "issue tokens failed", err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login: POST /v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	req, ok := h.bindCredentials(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return h.internal(c, "query failed", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return h.internal(c, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh: POST /v1/auth/refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return h.internal(c, "load user failed", err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return h.internal(c, "revoke refresh failed", err)
	}
	resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return h.internal(c, "issue tokens failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout: POST /v1/auth/logout.  A refresh_token in the body ends that
// session; otherwise a valid bearer token ends all of the user's sessions.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refresh := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if refresh != "" {
		hash := utils.HashRefreshRaw(refresh)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return h.internal(c, "logout failed", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	raw, ok := middleware.BearerToken(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	uid, _ := claims.UserID()
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return h.internal(c, "logout failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: GET /v1/me
func (h *AuthHandler) Me(c echo.Context) error {
	id, _ := middleware.UserID(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": id,
		"role":    middleware.Role(c),
	})
}
