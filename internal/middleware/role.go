package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrms-backend/pkg/utils"
)

func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			utils.ErrorResponse(c, http.StatusForbidden, "Role not found in context")
			c.Abort()
			return
		}

		accountRole := role.(string)

		for _, allowedRole := range allowedRoles {
			if accountRole == allowedRole {
				c.Next()
				return
			}
		}

		utils.ErrorResponse(c, http.StatusForbidden, "Insufficient permissions")
		c.Abort()
	}
}

func HROnly() gin.HandlerFunc {
	return RoleMiddleware("hr")
}

func EmployeeOnly() gin.HandlerFunc {
	return RoleMiddleware("employee")
}
