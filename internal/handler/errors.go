package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"studyverse/internal/auth"
	"studyverse/internal/infrastructure/storage"
	"studyverse/internal/ledger"
	"studyverse/internal/repository"
	"studyverse/internal/service"
	"studyverse/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorMapping struct {
	target error
	status int
	code   int
	reason string
}

// errorTable 按顺序匹配，第一个命中的生效
var errorTable = []errorMapping{
	{ledger.ErrAlreadyOwned, http.StatusConflict, response.CodeAlreadyOwned, "ALREADY_OWNED"},
	{ledger.ErrSelfPurchaseForbidden, http.StatusForbidden, response.CodeSelfPurchaseForbidden, "SELF_PURCHASE_FORBIDDEN"},
	{ledger.ErrInsufficientFunds, http.StatusPaymentRequired, response.CodeInsufficientFunds, "INSUFFICIENT_FUNDS"},
	{ledger.ErrNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},
	{ledger.ErrAccountNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, response.CodeParamError, "INVALID_INPUT"},
	{ledger.ErrInvalidRating, http.StatusBadRequest, response.CodeParamError, "INVALID_INPUT"},
	{ledger.ErrStorage, http.StatusServiceUnavailable, response.CodeStorageFailure, "STORAGE_FAILURE"},

	{repository.ErrUserNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},
	{repository.ErrAccountNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},
	{repository.ErrCourseNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},
	{repository.ErrLessonNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},
	{repository.ErrNoteNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},

	{service.ErrInvalidInput, http.StatusBadRequest, response.CodeParamError, "INVALID_INPUT"},
	{service.ErrForbidden, http.StatusForbidden, response.CodeForbidden, "FORBIDDEN"},
	{service.ErrNotEntitled, http.StatusForbidden, response.CodeNotEntitled, "NOT_ENTITLED"},
	{service.ErrEmailTaken, http.StatusConflict, response.CodeEmailTaken, "EMAIL_TAKEN"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.CodeInvalidCredentials, "INVALID_CREDENTIALS"},
	{service.ErrPurchaseInProgress, http.StatusTooManyRequests, response.CodePurchaseInProgress, "PURCHASE_IN_PROGRESS"},

	{auth.ErrTokenExpired, http.StatusUnauthorized, response.CodeUnauthorized, "UNAUTHORIZED"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, response.CodeUnauthorized, "UNAUTHORIZED"},

	{storage.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.CodeParamError, "FILE_TOO_LARGE"},
	{storage.ErrFileNotFound, http.StatusNotFound, response.CodeNotFound, "NOT_FOUND"},
}

// writeError 把 service 层错误翻译成 HTTP 状态码 + 业务码 + reason
func writeError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.ParamError(c, validationMessage(verrs))
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			message := m.target.Error()
			if m.status == http.StatusBadRequest {
				message = err.Error()
			}
			if m.status >= http.StatusInternalServerError {
				log.Printf("[Handler] %s %s 失败: %v", c.Request.Method, c.FullPath(), err)
			}
			response.Error(c, m.status, m.code, m.reason, message)
			return
		}
	}

	log.Printf("[Handler] %s %s 未知错误: %v", c.Request.Method, c.FullPath(), err)
	response.ServerError(c, "服务器内部错误")
}

// validationMessage 拼出字段级错误，例如 "email: email; password: min=6"
func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, fe.Param())
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), rule))
	}
	return "参数错误: " + strings.Join(parts, "; ")
}
