package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks a request DTO against its validate tags and folds
// the failures into a single error message.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}
