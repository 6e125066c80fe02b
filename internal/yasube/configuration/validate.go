package configuration

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/yasube/yasube/internal/common/config"
	"github.com/yasube/yasube/internal/common/yasubeerrors"
	"github.com/yasube/yasube/internal/yasube/platform"
	"github.com/yasube/yasube/internal/yasube/testcase"
)

var grantTypes = []string{
	string(platform.GrantCode),
	string(platform.GrantPassword),
	string(platform.GrantClientCredentials),
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterStructValidation(validateAuth, AuthConfig{})
	return validate
}

// validateAuth checks the credentials required by each auth type.
func validateAuth(sl validator.StructLevel) {
	auth := sl.Current().Interface().(AuthConfig)
	c := auth.Credentials
	required := func(value, name string) {
		if value == "" {
			sl.ReportError(value, "credentials."+name, name, "required", "")
		}
	}
	switch platform.AuthType(auth.Type) {
	case platform.AuthBasic:
		required(c.Username, "username")
		required(c.Password, "password")
	case platform.AuthOAuth:
		required(c.TokenURL, "token_url")
		required(c.GrantType, "grant_type")
		if c.GrantType != "" && !slices.Contains(grantTypes, c.GrantType) {
			sl.ReportError(c.GrantType, "credentials.grant_type", "grant_type", "oneof", strings.Join(grantTypes, " "))
		}
		if platform.GrantType(c.GrantType) == platform.GrantPassword {
			required(c.Username, "username")
			required(c.Password, "password")
		}
	}
}

// Validate checks the schema of the configuration and the references between its sections. All problems
// are reported together.
func (c *Config) Validate() error {
	var result *multierror.Error
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			result = multierror.Append(result, config.ValidationErrors(verrs))
		} else {
			result = multierror.Append(result, err)
		}
	}
	if c.Logging != nil {
		if err := c.Logging.WithDefaults().Validate(); err != nil {
			result = multierror.Append(result, &yasubeerrors.ErrInvalidLoggingConfig{Cause: err})
		}
	}

	for _, key := range sortedKeys(c.Scenarios) {
		s := c.Scenarios[key]
		for _, p := range s.CompatiblePlatforms {
			if _, ok := c.Platforms[p]; !ok {
				result = multierror.Append(result, &yasubeerrors.ErrInvalidArgument{
					Name:    fmt.Sprintf("scenarios[%s].compatible_platforms", key),
					Value:   p,
					Message: fmt.Sprintf("not in %v", sortedKeys(c.Platforms)),
				})
			}
		}
		for _, service := range s.Services {
			if !slices.Contains(c.Services, service) {
				result = multierror.Append(result, &yasubeerrors.ErrInvalidArgument{
					Name:    fmt.Sprintf("scenarios[%s].services", key),
					Value:   service,
					Message: fmt.Sprintf("not in %v", c.Services),
				})
			}
		}
		result = appendCaseErrors(result, fmt.Sprintf("scenarios[%s].cases", key), s.Cases)
	}
	for _, key := range sortedKeys(c.Platforms) {
		for _, scenario := range sortedKeys(c.Platforms[key].Scenarios) {
			name := fmt.Sprintf("platforms[%s].scenarios[%s].cases", key, scenario)
			result = appendCaseErrors(result, name, c.Platforms[key].Scenarios[scenario].Cases)
		}
	}
	return result.ErrorOrNil()
}

func appendCaseErrors(result *multierror.Error, prefix string, cases map[string]CaseConfig) *multierror.Error {
	for _, key := range sortedKeys(cases) {
		if _, err := testcase.DecodeConfig(cases[key]); err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "%s[%s]", prefix, key))
		}
	}
	return result
}

// ValidateServices checks that every requested service is configured.
func (c *Config) ValidateServices(services []string) error {
	var invalid []string
	for _, s := range services {
		if !slices.Contains(c.Services, s) {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) > 0 {
		return errors.WithStack(&yasubeerrors.ErrInvalidArgument{
			Name:    "services",
			Value:   invalid,
			Message: fmt.Sprintf("valid options are %v", c.Services),
		})
	}
	return nil
}

// ValidatePlatform checks that key, when set, names a configured platform.
func (c *Config) ValidatePlatform(key string) error {
	if key == "" {
		return nil
	}
	if _, ok := c.Platforms[key]; !ok {
		return errors.WithStack(&yasubeerrors.ErrNotFound{
			Type:    "platform",
			Value:   key,
			Message: fmt.Sprintf("valid options are %v", sortedKeys(c.Platforms)),
		})
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
