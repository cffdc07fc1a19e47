package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/storefront/internal/domain"
	"github.com/prohmpiriya/storefront/internal/service"
	"github.com/prohmpiriya/storefront/pkg/response"
)

// Context keys populated by Authenticate
const (
	CtxPrincipalID = "principal_id"
	CtxEmail       = "email"
	CtxName        = "name"
	CtxRole        = "role"
)

// AuthMiddleware authenticates requests with bearer access tokens
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the bearer token and reloads the principal so a
// ban or deactivation takes effect mid-session, not just at next login
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.AbortError(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := m.authService.ValidateAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				response.AbortError(c, http.StatusUnauthorized, "token expired")
				return
			}
			response.AbortError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		principal, err := m.authService.GetPrincipal(c.Request.Context(), claims.PrincipalID)
		if err != nil {
			if errors.Is(err, domain.ErrPrincipalNotFound) {
				response.AbortError(c, http.StatusUnauthorized, "invalid token")
				return
			}
			response.AbortError(c, http.StatusInternalServerError, "internal server error")
			return
		}

		if principal.IsBanned {
			response.AbortError(c, http.StatusForbidden, "account is banned")
			return
		}
		if !principal.IsActive {
			response.AbortError(c, http.StatusForbidden, "account is inactive")
			return
		}

		c.Set(CtxPrincipalID, principal.ID)
		c.Set(CtxEmail, principal.Email)
		c.Set(CtxName, principal.Name)
		c.Set(CtxRole, principal.Role)

		c.Next()
	}
}

// RequireRole allows only the listed roles past this point. Must run
// after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(CtxRole)
		if !exists {
			response.AbortError(c, http.StatusUnauthorized, "not authenticated")
			return
		}

		role, ok := value.(domain.Role)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "not authenticated")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		response.AbortError(c, http.StatusForbidden, "insufficient privileges")
	}
}

// PrincipalID returns the authenticated principal's ID from the context
func PrincipalID(c *gin.Context) string {
	return c.GetString(CtxPrincipalID)
}

// PrincipalRole returns the authenticated principal's role from the context
func PrincipalRole(c *gin.Context) domain.Role {
	value, exists := c.Get(CtxRole)
	if !exists {
		return ""
	}
	role, _ := value.(domain.Role)
	return role
}
