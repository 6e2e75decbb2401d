// Package validator runs ozzo-validation rules and converts failures into LayeredError
package validator

import (
	"errors"

	"github.com/KOMKZ/go-yogan-event/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidationFailed generic validation failure (module code 1 = common)
var ErrValidationFailed = errcode.Register(errcode.New(
	1, 1010,
	"common",
	"error.common.validation_failed",
	"validation failed",
))

// Validatable 可校验接口
type Validatable interface {
	Validate() error
}

// Validate runs v.Validate and converts ozzo-validation errors.
// section names the config block being checked (e.g. "event", "logger").
func Validate(section string, v Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return ConvertValidationError(section, validationErrs)
	}

	// 其他错误直接返回
	return err
}

// ConvertValidationError 将 ozzo-validation 错误转换为 LayeredError
func ConvertValidationError(section string, validationErrs validation.Errors) error {
	fields := make(map[string]string)
	for field, fieldErr := range validationErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}

	return ErrValidationFailed.
		WithMsgf("%s validation failed", section).
		WithData("section", section).
		WithData("fields", fields)
}
