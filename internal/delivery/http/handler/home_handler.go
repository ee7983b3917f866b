package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrms-backend/pkg/utils"
)

// HomeHandler serves the role-gated dashboard endpoints. The interesting
// behavior lives in the auth and role middleware; these handlers only prove
// the caller got through.
type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

func (h *HomeHandler) RegisterHRRoutes(router *gin.RouterGroup) {
	router.GET("/home", h.HRHome)
}

func (h *HomeHandler) RegisterEmployeeRoutes(router *gin.RouterGroup) {
	router.GET("/home", h.EmployeeHome)
}

func (h *HomeHandler) HRHome(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Account not found in context")
		return
	}

	utils.SuccessResponse(c, http.StatusOK,
		fmt.Sprintf("Welcome home HR, your ID is %s", accountID), nil)
}

func (h *HomeHandler) EmployeeHome(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Account not found in context")
		return
	}

	utils.SuccessResponse(c, http.StatusOK,
		fmt.Sprintf("Welcome home employee, your ID is %s", accountID), nil)
}

func accountIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("accountID")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
