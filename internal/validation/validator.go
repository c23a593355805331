// Package validation wraps go-playground/validator with the price rules shared
// by the gateway's request checks and the dashboard's product form.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "shopdash/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		// The rules below run only on non-empty values; pair them with required.
		_ = validate.RegisterValidation("price", func(fl validator.FieldLevel) bool {
			_, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil
		})
		// price_nonzero=Flag skips the check when the sibling bool Flag is set.
		_ = validate.RegisterValidation("price_nonzero", func(fl validator.FieldLevel) bool {
			if flag := fl.Param(); flag != "" {
				if f := fl.Parent().FieldByName(flag); f.IsValid() && f.Kind() == reflect.Bool && f.Bool() {
					return true
				}
			}
			d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil && !d.IsZero()
		})
		_ = validate.RegisterValidation("price_positive", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil && d.IsPositive()
		})
	})

	return validate
}

var fieldLabels = map[string]string{
	"title":  "Title",
	"price":  "Price",
	"imgSrc": "Image URL",
}

var messageTemplates = map[string]string{
	"required":       "%s is required",
	"price":          "%s must be a number",
	"price_nonzero":  "%s must not be zero",
	"price_positive": "%s must be a positive number",
}

// Struct validates s and returns one detail per failing field, in field order.
// A nil slice means s is valid.
func Struct(s interface{}) []apperrors.ValidationDetail {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []apperrors.ValidationDetail{{Field: "body", Message: err.Error()}}
	}

	details := make([]apperrors.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fe.Field(),
			Message: translate(fe),
		})
	}
	return details
}

func translate(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	if tmpl, ok := messageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, label)
	}
	return fmt.Sprintf("%s failed %s validation", label, fe.Tag())
}
