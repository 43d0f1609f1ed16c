package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/librishq/libris/services/auth"
	"github.com/librishq/libris/services/jwt"
	"github.com/librishq/libris/services/refreshtoken"
	"github.com/mileusna/useragent"

	jwtmw "github.com/librishq/libris/middleware/jwt"
)

type AuthHandler struct {
	authService *auth.Service
	jwtService  *jwt.Service
}

func NewAuthHandler(authService *auth.Service, jwtService *jwt.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// An admin role is only honoured when the request itself carries a
	// valid admin access token; anyone else gets the default role.
	role := auth.RoleUser
	if req.Role == auth.RoleAdmin && h.callerRole(c) == auth.RoleAdmin {
		role = auth.RoleAdmin
	}

	user, err := h.authService.Register(req.Username, req.Email, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "username is already taken")
		case errors.Is(err, auth.ErrPasswordTooShort):
			return echo.NewHTTPError(http.StatusBadRequest, "password is too short")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
		}
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "user registered",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pair, err := h.authService.Login(req.Username, req.Password, sessionInfo(c))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":      "login successful",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pair, err := h.authService.Refresh(req.RefreshToken, sessionInfo(c))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingRefreshToken):
			return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
		case errors.Is(err, auth.ErrInvalidRefreshToken):
			return echo.NewHTTPError(http.StatusForbidden, "invalid refresh token")
		case errors.Is(err, auth.ErrExpiredRefreshToken):
			return echo.NewHTTPError(http.StatusForbidden, "refresh token has expired")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "token refresh failed")
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":      "token refreshed",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    pair.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.authService.Logout(req.RefreshToken); err != nil {
		if errors.Is(err, auth.ErrMissingRefreshToken) {
			return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Profile(c echo.Context) error {
	userID := jwtmw.GetUserID(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	user, err := h.authService.Profile(userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}

	return c.JSON(http.StatusOK, user)
}

// callerRole resolves the role of an optionally-authenticated caller.
// Invalid or absent tokens resolve to an empty role rather than an
// error: registration itself is a public endpoint.
func (h *AuthHandler) callerRole(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	claims, err := h.jwtService.ValidateAccessToken(parts[1])
	if err != nil {
		return ""
	}
	return claims.Role
}

func sessionInfo(c echo.Context) refreshtoken.SessionInfo {
	ua := useragent.Parse(c.Request().UserAgent())
	device := strings.TrimSpace(ua.Name + " " + ua.OS)

	return refreshtoken.SessionInfo{
		IPAddress: c.RealIP(),
		Device:    device,
	}
}
