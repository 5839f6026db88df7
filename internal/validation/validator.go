// Package validation validates request payloads with go-playground/validator
// and reports violations keyed by their JSON field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		// Dates validate as their wire string; the zero date counts as absent.
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			d, ok := field.Interface().(domain.Date)
			if !ok || d.IsZero() {
				return ""
			}
			return d.String()
		}, domain.Date{})

		// Nullable fields validate their value; absent or null reads as empty.
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if n, ok := field.Interface().(domain.Nullable[string]); ok && n.Present() {
				return n.Value
			}
			return nil
		}, domain.Nullable[string]{})
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if n, ok := field.Interface().(domain.Nullable[int64]); ok && n.Present() {
				return n.Value
			}
			return nil
		}, domain.Nullable[int64]{})
	})

	return validate
}

// Struct validates s and returns a *domain.ValidationError describing every
// failing field, or nil.
func Struct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	out := &domain.ValidationError{}
	for _, fieldErr := range validationErrs {
		out.Add(fieldErr.Field(), translateError(fieldErr))
	}
	return out
}

const (
	MsgRequired = "Este campo é obrigatório."
	MsgInvalid  = "Valor inválido."
)

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required": MsgRequired,
	"email":    "Insira um endereço de email válido.",
	"numeric":  "Insira um número válido.",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof": "Escolha um valor válido entre: %s.",
	"max":   "Certifique-se de que este campo não tenha mais de %s caracteres.",
	"min":   "Certifique-se de que este campo tenha no mínimo %s caracteres.",
	"gte":   "Certifique-se de que este valor seja maior ou igual a %s.",
	"gt":    "Certifique-se de que este valor seja maior que %s.",
	"lte":   "Certifique-se de que este valor seja menor ou igual a %s.",
}

// translateError converts a validator.FieldError to a user-facing message.
func translateError(fe validator.FieldError) string {
	tag := fe.Tag()
	if msg, ok := errorMessageTemplates[tag]; ok {
		return msg
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		param := fe.Param()
		if tag == "oneof" {
			param = strings.Join(strings.Fields(param), ", ")
		}
		if (tag == "max" || tag == "min") && fe.Kind() != reflect.String {
			// Numeric bounds read as value limits, not lengths.
			if tag == "max" {
				return fmt.Sprintf(errorMessageWithParam["lte"], param)
			}
			return fmt.Sprintf(errorMessageWithParam["gte"], param)
		}
		return fmt.Sprintf(template, param)
	}
	return MsgInvalid
}
