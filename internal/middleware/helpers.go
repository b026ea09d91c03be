// internal/middleware/helpers.go
package middleware

import (
	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// GetIdentityID returns the authenticated identity, if any
func GetIdentityID(c *gin.Context) (int64, bool) {
	identityID, exists := c.Get(ctxIdentityID)
	if !exists {
		return 0, false
	}

	id, ok := identityID.(int64)
	return id, ok
}

// GetJTI returns the token id of the authenticated request
func GetJTI(c *gin.Context) (string, bool) {
	jti, exists := c.Get(ctxJTI)
	if !exists {
		return "", false
	}

	jtiStr, ok := jti.(string)
	return jtiStr, ok
}

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get(ctxRoles)
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}

	return rolesList
}

// HasRole checks if user has role
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := GetIdentityID(c)
	return exists
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, jwt.RoleAdmin) || HasRole(c, jwt.RoleSuperAdmin)
}

// Actor returns the booking actor for the request, or nil when anonymous.
func Actor(c *gin.Context) *booking.Actor {
	id, ok := GetIdentityID(c)
	if !ok {
		return nil
	}
	return &booking.Actor{UserID: id, Admin: IsAdmin(c)}
}

// MustGetIdentityID gets identity ID from context or panics
func MustGetIdentityID(c *gin.Context) int64 {
	identityID, exists := GetIdentityID(c)
	if !exists {
		panic("identity_id not found in context")
	}
	return identityID
}
