package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"

	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

// ValidationErrors turns validator errors into invalid argument errors, one per failing field.
// Other errors are returned as is.
func ValidationErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var result *multierror.Error
	for _, e := range verrs {
		fieldName := stripPrefix(e.Namespace())
		var message string
		switch e.Tag() {
		case "required":
			message = "field is required but was not found"
		case "oneof":
			message = fmt.Sprintf("must be one of [%s]", e.Param())
		default:
			message = fmt.Sprintf("failed %s=%s validation", e.Tag(), e.Param())
		}
		result = multierror.Append(result, &yasubeerrors.ErrInvalidArgument{
			Name:    fieldName,
			Value:   e.Value(),
			Message: message,
		})
	}
	return result.ErrorOrNil()
}

// LogValidationErrors logs each error aggregated in err on its own line.
func LogValidationErrors(err error) {
	if err == nil {
		return
	}
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			logging.Errorf("ConfigError: %s", e)
		}
		return
	}
	logging.Errorf("ConfigError: %s", err)
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
