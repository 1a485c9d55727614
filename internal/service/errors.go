package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"studyverse/internal/auth"

	"github.com/go-playground/validator/v10"
)

var (
	ErrForbidden          = errors.New("无权操作")
	ErrInvalidInput       = errors.New("参数错误")
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrNotEntitled        = errors.New("请先购买或报名")
	ErrPurchaseInProgress = errors.New("购买处理中，请稍后重试")
)

var validate = newValidator()

// newValidator 错误信息里用 json 字段名
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput 校验失败时同时保留 ErrInvalidInput 和 validator.ValidationErrors，
// handler 用后者拼字段级错误信息
func validateInput(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func requireRole(id auth.Identity, roles ...string) error {
	for _, role := range roles {
		if id.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
