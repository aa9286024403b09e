package serverutils

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError is one failed rule, keyed by the json field name.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

func describeValidation(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, FieldError{Field: e.Field(), Rule: e.Tag(), Param: e.Param()})
	}
	return out
}

func validationMessage(errs validator.ValidationErrors) string {
	if len(errs) == 1 {
		return fmt.Sprintf("%s failed on %s", errs[0].Field(), errs[0].Tag())
	}
	return fmt.Sprintf("%d fields failed validation", len(errs))
}
