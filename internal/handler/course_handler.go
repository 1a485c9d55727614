package handler

import (
	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 课程 / 课时
// ============================================================

// ListCourses 已审核通过的课程
// GET /api/v1/courses
func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.ListApproved(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, courses)
}

// GetCourse GET /api/v1/courses/:id
func (h *Handler) GetCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Get(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, course)
}

// CreateCourse POST /api/v1/courses
func (h *Handler) CreateCourse(c *gin.Context) {
	var req service.CourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), identity(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse PUT /api/v1/courses/:id
func (h *Handler) UpdateCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), identity(c), courseID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, course)
}

// DeleteCourse DELETE /api/v1/courses/:id
func (h *Handler) DeleteCourse(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), identity(c), courseID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListMyCourses 讲师自己的课程（含待审核）
// GET /api/v1/me/courses
func (h *Handler) ListMyCourses(c *gin.Context) {
	courses, err := h.courseService.ListMine(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, courses)
}

// ListCourseNotes GET /api/v1/courses/:id/notes
func (h *Handler) ListCourseNotes(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	notes, err := h.courseService.ListNotes(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, notes)
}

// ListLessons GET /api/v1/courses/:id/lessons
func (h *Handler) ListLessons(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	lessons, err := h.lessonService.List(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, lessons)
}

// AddLesson POST /api/v1/courses/:id/lessons
func (h *Handler) AddLesson(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.LessonRequest
	if !bindJSON(c, &req) {
		return
	}

	lesson, err := h.lessonService.Add(c.Request.Context(), identity(c), courseID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, lesson)
}

// UpdateLesson PUT /api/v1/lessons/:id
func (h *Handler) UpdateLesson(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateLessonRequest
	if !bindJSON(c, &req) {
		return
	}

	lesson, err := h.lessonService.Update(c.Request.Context(), identity(c), lessonID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, lesson)
}

// DeleteLesson DELETE /api/v1/lessons/:id
func (h *Handler) DeleteLesson(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.lessonService.Delete(c.Request.Context(), identity(c), lessonID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// CompleteLesson POST /api/v1/lessons/:id/complete
func (h *Handler) CompleteLesson(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.lessonService.Complete(c.Request.Context(), identity(c), lessonID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"lesson_id": lessonID, "completed": true})
}

// CourseProgress 已完成的课时
// GET /api/v1/courses/:id/progress
func (h *Handler) CourseProgress(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ids, err := h.lessonService.Progress(c.Request.Context(), identity(c), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"course_id": courseID, "completed_lesson_ids": ids})
}

// Search GET /api/v1/search?q=
func (h *Handler) Search(c *gin.Context) {
	result, err := h.searchService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}
