package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// 业务错误码
const (
	CodeAlreadyOwned          = 1001
	CodeSelfPurchaseForbidden = 1002
	CodeInsufficientFunds     = 1003
	CodeNotEntitled           = 1004
	CodeEmailTaken            = 1005
	CodeInvalidCredentials    = 1006
	CodePurchaseInProgress    = 1007
	CodeStorageFailure        = 1008
)

// Response 统一返回结构
//
// Reason 是给客户端做分支判断用的稳定字符串，Message 只用于展示。
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 输出错误并中止后续 handler
func Error(c *gin.Context, status, code int, reason, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
		Reason:  reason,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, "INVALID_INPUT", message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, "FORBIDDEN", message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, "INTERNAL", message)
}
