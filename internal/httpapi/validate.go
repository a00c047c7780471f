package httpapi

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"venue-crm/internal/datetime"
)

// ISODateValidator accepts strict YYYY-MM-DD strings.
var ISODateValidator = func(fl validator.FieldLevel) bool {
	return datetime.IsISODate(fl.Field().String())
}

// NewValidator returns a validator that reports fields by their JSON names and
// knows the isodate tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("isodate", ISODateValidator)
	return v
}
