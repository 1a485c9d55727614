package handler

import (
	"studyverse/internal/ledger"
	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 评分 / 评价 / 评论，课程和笔记共用
// ============================================================

// Rate POST /api/v1/{courses|notes}/:id/rate
func (h *Handler) Rate(kind ledger.ItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.RateRequest
		if !bindJSON(c, &req) {
			return
		}

		result, err := h.feedbackService.Rate(c.Request.Context(), identity(c), kind, itemID, &req)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, result)
	}
}

// Reviews GET /api/v1/{courses|notes}/:id/reviews
func (h *Handler) Reviews(kind ledger.ItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := pathID(c, "id")
		if !ok {
			return
		}

		reviews, err := h.feedbackService.Reviews(c.Request.Context(), kind, itemID)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, reviews)
	}
}

// Comments GET /api/v1/{courses|notes}/:id/comments
func (h *Handler) Comments(kind ledger.ItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := pathID(c, "id")
		if !ok {
			return
		}

		comments, err := h.feedbackService.Comments(c.Request.Context(), kind, itemID)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, comments)
	}
}

// AddComment POST /api/v1/{courses|notes}/:id/comments
func (h *Handler) AddComment(kind ledger.ItemKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.CommentRequest
		if !bindJSON(c, &req) {
			return
		}

		comment, err := h.feedbackService.AddComment(c.Request.Context(), identity(c), kind, itemID, &req)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Created(c, comment)
	}
}
