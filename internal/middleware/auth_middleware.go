// internal/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"vehicle-booking-service/internal/pkg/jwt"
	"vehicle-booking-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxIdentityID = "identity_id"
	ctxJTI        = "jti"
	ctxRoles      = "roles"
)

type AuthMiddleware struct {
	verifier *jwt.Verifier
	logger   *zap.Logger
}

func NewAuthMiddleware(verifier *jwt.Verifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// Auth validates the bearer token and rejects the request without one
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			m.logger.Debug("token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and lets
// anonymous requests through. An invalid token is treated as anonymous.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			m.logger.Debug("optional token ignored", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Next()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RequireRole requires at least one of the roles. MUST be used after Auth().
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles := GetRoles(c)
		if !IsAuthenticated(c) {
			response.Error(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		for _, userRole := range userRoles {
			for _, requiredRole := range roles {
				if userRole == requiredRole {
					c.Next()
					return
				}
			}
		}

		err := errors.New("user does not have required role")
		response.Error(c, http.StatusForbidden, "insufficient permissions", err, map[string]interface{}{
			"required_roles": roles,
		})
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(jwt.RoleAdmin, jwt.RoleSuperAdmin),
	}
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ctxIdentityID, claims.IdentityID)
	c.Set(ctxJTI, claims.ID)
	c.Set(ctxRoles, claims.Roles)
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return ""
}
