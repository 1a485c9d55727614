package handler

import (
	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
)

// Register 注册
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, result)
}

// Login 登录
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Me 当前用户
// GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, user)
}
