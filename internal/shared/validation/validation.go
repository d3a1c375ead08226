// Package validation は go-playground/validator をドメインエンティティ用の独自ルール付きでラップし、
// 検証の失敗を読みやすいメッセージに変換します。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// imagePathPattern は従業員の写真で受け付ける拡張子に一致します。
var imagePathPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif)$`)

// digits は「数字を含む」ルールで使う containsany のパラメータです。
const digits = "0123456789"

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator は独自ルールを登録したプロセス共通のバリデータを返します。
// validator.Validate は構造体のメタデータをキャッシュし、並行に使っても安全です。
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// 項目は json 名で報告する (first_name, salary, ...)
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		mustRegister(v, "notfuture", notFuture)
		mustRegister(v, "imagepath", imagePath)
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// notFuture は time.Time の項目が現在時刻より後でなければ通します。
func notFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(time.Now())
}

func imagePath(fl validator.FieldLevel) bool {
	return imagePathPattern.MatchString(fl.Field().String())
}

// IsImagePath は p が画像の拡張子で終わるかを返します。
func IsImagePath(p string) bool {
	return imagePathPattern.MatchString(p)
}

// Struct は s を検証し、最初に違反したルールのメッセージを返します。なければ "" です。
func Struct(s any) string {
	err := Validator().Struct(s)
	if err == nil {
		return ""
	}
	return Message(err)
}

// Var は1つの値を tag で検証し、通ったかを返します。
func Var(value any, tag string) bool {
	return Validator().Var(value, tag) == nil
}

// Message は err の最初の検証失敗を文章にします。
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	return fieldMessage(verrs[0])
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "alpha":
		return fmt.Sprintf("%s can only contain letters", field)
	case "alphanum":
		return fmt.Sprintf("%s can only contain letters and numbers", field)
	case "containsany":
		if fe.Param() == digits {
			return fmt.Sprintf("%s must contain at least one number", field)
		}
		return fmt.Sprintf("%s must contain one of %q", field, fe.Param())
	case "email":
		return "please enter a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "notfuture":
		return fmt.Sprintf("%s cannot be a future date", field)
	case "imagepath":
		return "invalid image file format. Only JPG, JPEG, PNG, and GIF are allowed"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
