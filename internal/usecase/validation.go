package usecase

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks struct tags of a run request and reports failures
// as configuration errors.
func validateRequest(req any) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, item := range verrs {
		if item.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", item.Field(), item.Tag(), item.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", item.Field(), item.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(parts, "; "))
}
