package requests

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var errInvalidNumber = errors.New("page and per_page must be positive integers")

// validationMessage flattens validator errors into one line such as
// "action is required".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "oneof":
			parts = append(parts, field+" must be one of: "+fe.Param())
		case "datetime":
			parts = append(parts, field+" must be formatted as "+fe.Param())
		case "max":
			parts = append(parts, field+" is too long")
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
