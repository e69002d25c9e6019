package handler

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/pdfchat/internal/pkg/errcode"
	"github.com/xxxsen/pdfchat/internal/pkg/response"
	"github.com/xxxsen/pdfchat/internal/service"
)

type AdminHandler struct {
	admin *service.AdminService
	token string
}

func NewAdminHandler(admin *service.AdminService, token string) *AdminHandler {
	return &AdminHandler{admin: admin, token: token}
}

// ResetTable wipes all stored chunks for all users. Guarded by the admin
// token; an unset token disables the endpoint entirely.
func (h *AdminHandler) ResetTable(c *gin.Context) {
	if h.token == "" {
		response.Error(c, errcode.ErrForbidden, "admin endpoints disabled")
		return
	}
	got := c.GetHeader("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		response.Error(c, errcode.ErrForbidden, "forbidden")
		return
	}
	if err := h.admin.ResetTable(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"reset": true})
}
