package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/dto"
	"github.com/prohmpiriya/storefront/internal/middleware"
	"github.com/prohmpiriya/storefront/internal/service"
	"github.com/prohmpiriya/storefront/pkg/response"
)

const refreshCookieName = "refresh_token"

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService   service.AuthService
	refreshExpiry time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, refreshExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		refreshExpiry: refreshExpiry,
	}
}

// Register handles principal registration
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if valid, msg := req.ValidateEmail(); !valid {
		response.BadRequest(c, msg)
		return
	}
	if valid, msg := req.ValidatePassword(); !valid {
		response.BadRequest(c, msg)
		return
	}

	principal, pair, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrPrincipalExists) {
			response.Conflict(c, "An account with this email already exists")
			return
		}
		response.InternalError(c)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	response.Created(c, dto.AuthResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
		Principal:   toPrincipalResponse(principal),
	})
}

// Login handles principal login
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	principal, pair, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, service.ErrPrincipalBanned):
			response.Forbidden(c, "Account is banned")
		case errors.Is(err, service.ErrPrincipalInactive):
			response.Forbidden(c, "Account is inactive")
		default:
			response.InternalError(c)
		}
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	response.OK(c, dto.AuthResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
		Principal:   toPrincipalResponse(principal),
	})
}

// Refresh rotates the refresh cookie and re-issues an access token
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		response.Unauthorized(c, "missing refresh token")
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenRevoked),
			errors.Is(err, service.ErrInvalidToken):
			h.clearRefreshCookie(c)
			response.Unauthorized(c, "invalid or expired refresh token")
		case errors.Is(err, service.ErrPrincipalBanned):
			h.clearRefreshCookie(c)
			response.Forbidden(c, "Account is banned")
		case errors.Is(err, service.ErrPrincipalInactive):
			h.clearRefreshCookie(c)
			response.Forbidden(c, "Account is inactive")
		default:
			response.InternalError(c)
		}
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	response.OK(c, dto.RefreshResponse{
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	})
}

// Logout revokes the refresh token and clears the cookie
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err == nil && refreshToken != "" {
		if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
			response.InternalError(c)
			return
		}
	}

	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated principal
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	principal, err := h.authService.GetPrincipal(c.Request.Context(), middleware.PrincipalID(c))
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			response.NotFound(c, "Principal not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, toPrincipalResponse(principal))
}

// Ban bans a principal
// PATCH /users/:id/ban
func (h *AuthHandler) Ban(c *gin.Context) {
	h.setBanned(c, true)
}

// Unban lifts a ban
// PATCH /users/:id/unban
func (h *AuthHandler) Unban(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *AuthHandler) setBanned(c *gin.Context, banned bool) {
	if err := h.authService.SetBanned(c.Request.Context(), c.Param("id"), banned); err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			response.NotFound(c, "Principal not found")
			return
		}
		response.InternalError(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// Deactivate deactivates a principal
// PATCH /users/:id/deactivate
func (h *AuthHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

// Activate reactivates a principal
// PATCH /users/:id/activate
func (h *AuthHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *AuthHandler) setActive(c *gin.Context, active bool) {
	if err := h.authService.SetActive(c.Request.Context(), c.Param("id"), active); err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			response.NotFound(c, "Principal not found")
			return
		}
		response.InternalError(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// setRefreshCookie scopes the refresh token to the auth endpoints so it
// never rides along on catalog or order requests
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		refreshCookieName,
		token,
		int(h.refreshExpiry.Seconds()),
		"/auth",
		"",
		c.Request.TLS != nil,
		true,
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/auth", "", c.Request.TLS != nil, true)
}

func toPrincipalResponse(p *domain.Principal) dto.PrincipalResponse {
	return dto.PrincipalResponse{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
