package handler

import (
	"studyverse/internal/ledger"
	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 购买 / 报名 / 账户
// ============================================================

// Enroll 报名课程
// POST /api/v1/items/courses/:id/enroll
func (h *Handler) Enroll(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.purchaseService.Enroll(c.Request.Context(), identity(c), courseID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, receiptBody(receipt))
}

// PurchaseNote 购买笔记
// POST /api/v1/items/notes/:id/purchase
func (h *Handler) PurchaseNote(c *gin.Context) {
	noteID, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.purchaseService.BuyNote(c.Request.Context(), identity(c), noteID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, receiptBody(receipt))
}

func receiptBody(r *ledger.Receipt) gin.H {
	return gin.H{
		"new_balance":    r.NewBalance,
		"transaction_no": r.TransactionNo,
		"item_type":      r.ItemKind,
		"item_id":        r.ItemID,
		"price":          r.Amount,
	}
}

// GetAccount 查询余额
// GET /api/v1/me/account
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"user_id": account.UserID,
		"balance": account.Balance,
	})
}

// TopUp 充值（简化版，实际应该走支付渠道）
// POST /api/v1/me/account/topup
func (h *Handler) TopUp(c *gin.Context) {
	var req service.TopUpRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.accountService.TopUp(c.Request.Context(), identity(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"transaction_no": receipt.TransactionNo,
		"amount":         receipt.Amount,
		"new_balance":    receipt.NewBalance,
	})
}

// ListTransactions 资金流水
// GET /api/v1/me/account/transactions?page=1&page_size=20
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := pagination(c)

	result, err := h.accountService.ListTransactions(c.Request.Context(), identity(c), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// ListEnrollments 已报名课程
// GET /api/v1/me/enrollments
func (h *Handler) ListEnrollments(c *gin.Context) {
	courses, err := h.courseService.ListEnrolled(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, courses)
}

// ListPurchases 已购买笔记
// GET /api/v1/me/purchases
func (h *Handler) ListPurchases(c *gin.Context) {
	notes, err := h.noteService.ListPurchased(c.Request.Context(), identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, notes)
}
