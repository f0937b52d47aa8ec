package model

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/fyerfyer/doc-summary-system/internal/summary"
)

// RegisterValidators 注册自定义校验规则
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("detail_level", validateDetailLevel)
}

// validateDetailLevel detail_level取值必须为short、medium或detailed，大小写不敏感
func validateDetailLevel(fl validator.FieldLevel) bool {
	_, err := summary.ParseDetailLevel(fl.Field().String())
	return err == nil
}
