package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/ticket-escrow/internal/config"
	"github.com/iliyamo/ticket-escrow/internal/middleware"
	"github.com/iliyamo/ticket-escrow/internal/model"
	"github.com/iliyamo/ticket-escrow/internal/utils"
)

// UserStore persists accounts.  Implemented by repository.UserRepo and
// memstore.Accounts.
type UserStore interface {
	Create(ctx context.Context, email, hash, role string, addr model.Address) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RefreshStore persists hashed refresh tokens.
type RefreshStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens RefreshStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t RefreshStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID      uint64        `json:"id"`
	Email   string        `json:"email"`
	Role    string        `json:"role"`
	Address model.Address `json:"address"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Role: u.Role, Address: u.Address}
}

// issuePair signs an access token and stores a fresh refresh token.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    toUserPart(u),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// Register: create user with a fresh account address and return tokens
// immediately.  Emails listed in ADMIN_EMAILS get the ADMIN role.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return writeError(c, err)
	}
	role := model.RoleUser
	if h.Cfg.IsAdminEmail(req.Email) {
		role = model.RoleAdmin
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return badRequest(c, err.Error())
	}
	addr, err := model.NewAddress()
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, hash, role, addr)
	if err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists", "code": "email_exists"})
		}
		return writeError(c, err)
	}

	resp, err := h.issuePair(ctx, model.User{ID: uid, Email: req.Email, Role: role, Address: addr})
	if err != nil {
		return writeError(c, err)
	}
	zap.L().Info("account registered", zap.Uint64("user_id", uid), zap.String("role", role))
	return c.JSON(http.StatusCreated, resp)
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return invalidCredentials(c)
		}
		return writeError(c, err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return invalidCredentials(c)
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func invalidCredentials(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials", "code": "unauthorized"})
}

func invalidRefresh(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh", "code": "unauthorized"})
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.Validate() != nil {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(req.RefreshToken)

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return invalidRefresh(c)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return writeError(c, err)
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return invalidRefresh(c)
		}
		return writeError(c, err)
	}
	resp, err := h.issuePair(ctx, u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.Validate() != nil {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(req.RefreshToken))
	if err != nil {
		return invalidRefresh(c)
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return invalidRefresh(c)
		}
		return writeError(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one session or all of them.  A refresh_token in the body
// revokes that token.  Without one, a valid Bearer access token revokes
// every refresh token of its user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token", "code": "unauthorized"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return badRequest(c, "provide Authorization header or refresh_token")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil || claims.UserID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, claims.UserID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	addr, _ := middleware.CallerAddress(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get(middleware.CtxUserID),
		"role":    c.Get(middleware.CtxRole),
		"address": addr,
	})
}
