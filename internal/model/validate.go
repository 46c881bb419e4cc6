package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
)

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// entityValidator はタグ名をJSONのフィールド名に揃えたバリデータを返します
func entityValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		// notblank は前後の空白を除いて空でないことを検証します
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("email_tld", func(fl validator.FieldLevel) bool {
			return emailRegex.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// validateStruct は構造体を検証し、失敗時は Validation 種別のエラーを返します
func validateStruct(op string, s any) error {
	err := entityValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Wrap(apperror.KindValidation, op, "invalid entity", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return apperror.New(apperror.KindValidation, op, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "notblank":
		return fmt.Sprintf("'%s' must not be empty", field)
	case "gt":
		return fmt.Sprintf("'%s' must be a positive integer", field)
	case "gte", "lte":
		return fmt.Sprintf("'%s' must be between 0.0 and 5.0", field)
	case "email_tld":
		return fmt.Sprintf("'%s' is not a valid email address", field)
	case "gtfield":
		return fmt.Sprintf("'%s' must be after '%s'", field, toSnake(fe.Param()))
	case "oneof":
		return fmt.Sprintf("'%s' must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("'%s' failed on '%s'", field, fe.Tag())
	}
}

// toSnake は gtfield のパラメータ（Goのフィールド名）を永続化名に変換します
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
