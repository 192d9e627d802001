package service

import (
	"errors"
	"fmt"
	"strings"

	"checkout/internal/entity"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// validateStruct checks v against its validate tags. A failure wraps
// entity.ErrInvalidData unless a field listed in sentinels maps it to
// another error.
func validateStruct(v any, sentinels map[string]error) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", entity.ErrInvalidData, err)
	}

	cause := entity.ErrInvalidData
	failed := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if sentinel, ok := sentinels[fe.Field()]; ok {
			cause = sentinel
		}
		failed = append(failed, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s: %w", strings.Join(failed, ", "), cause)
}
