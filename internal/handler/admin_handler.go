package handler

import (
	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 管理后台，路由组上已经挂了 RequireRole(admin)
// ============================================================

// SetCourseStatus 审核课程
// PATCH /api/v1/admin/courses/:id/status
func (h *Handler) SetCourseStatus(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CourseStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.adminService.SetCourseStatus(c.Request.Context(), identity(c), courseID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, course)
}

// AdminDeleteCourse DELETE /api/v1/admin/courses/:id
func (h *Handler) AdminDeleteCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteCourse(c.Request.Context(), identity(c), courseID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// AdminDeleteNote DELETE /api/v1/admin/notes/:id
func (h *Handler) AdminDeleteNote(c *gin.Context) {
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteNote(c.Request.Context(), identity(c), noteID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListUsers GET /api/v1/admin/users?page=1&page_size=20
func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)

	result, err := h.adminService.ListUsers(c.Request.Context(), identity(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

// OutboxStats GET /api/v1/admin/outbox
func (h *Handler) OutboxStats(c *gin.Context) {
	stats, err := h.adminService.OutboxStats(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}
