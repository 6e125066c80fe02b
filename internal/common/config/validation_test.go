package config

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

type platformConfig struct {
	Key      string `validate:"required"`
	AuthType string `validate:"oneof=basic oauth"`
	Workers  int    `validate:"min=1"`
}

func TestValidationErrors(t *testing.T) {
	err := validator.New().Struct(platformConfig{AuthType: "kerberos"})
	require.Error(t, err)

	converted := ValidationErrors(err)

	var merr *multierror.Error
	require.True(t, errors.As(converted, &merr))
	require.Len(t, merr.Errors, 3)
	messages := map[string]string{}
	for _, e := range merr.Errors {
		var invalid *yasubeerrors.ErrInvalidArgument
		require.True(t, errors.As(e, &invalid))
		messages[invalid.Name] = invalid.Message
	}
	assert.Equal(t, map[string]string{
		"Key":      "field is required but was not found",
		"AuthType": "must be one of [basic oauth]",
		"Workers":  "failed min=1 validation",
	}, messages)
}

func TestValidationErrors_PassesThrough(t *testing.T) {
	assert.Nil(t, ValidationErrors(nil))
	assert.Equal(t, assert.AnError, ValidationErrors(assert.AnError))
}
