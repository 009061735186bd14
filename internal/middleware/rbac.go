package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	appErrors "github.com/noah-isme/sma-ipcrf-api/pkg/errors"
	"github.com/noah-isme/sma-ipcrf-api/pkg/response"
)

// RoleSelf lets a teacher reach routes whose :id is their own teacher record.
const RoleSelf = "SELF"

type teacherResolver interface {
	GetByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// RBAC enforces role-based access control for routes. When SELF is listed,
// teachers may pass for their own :id, resolved through teachers.
func RBAC(teachers teacherResolver, allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{})
	for _, a := range allowed {
		if a == RoleSelf {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.Role == models.RoleSuperAdmin {
			c.Next()
			return
		}
		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf && teachers != nil && claims.Role == models.RoleTeacher {
			if targetID := c.Param("id"); targetID != "" {
				teacher, err := teachers.GetByUserID(c.Request.Context(), claims.UserID)
				if err == nil && teacher != nil && teacher.ID == targetID {
					c.Next()
					return
				}
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(nil, allowed...)
}
