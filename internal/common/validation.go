package common

import (
	"errors"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// ValidationDetails flattens validator errors into a field-to-message map
// suitable for the error envelope's details.
func ValidationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "truong bat buoc"
		case "email":
			out[field] = "email khong hop le"
		case "max":
			out[field] = "vuot qua do dai cho phep"
		case "min", "gt", "gte":
			out[field] = "gia tri khong hop le"
		default:
			out[field] = "gia tri khong hop le"
		}
	}
	return out
}
