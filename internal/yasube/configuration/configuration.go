// Package configuration loads the YAML file describing platforms, services and scenarios, and selects the
// executions a run is made of.
package configuration

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/common/yasubeerrors"
	"github.com/yasube/yasube/internal/yasube/platform"
)

type Config struct {
	Logging   *logging.Config           `yaml:"logging"`
	Global    GlobalConfig              `yaml:"global"`
	Queries   map[string]string         `yaml:"queries"`
	Platforms map[string]PlatformConfig `yaml:"platforms" validate:"required,dive"`
	Services  []string                  `yaml:"services" validate:"required"`
	Scenarios map[string]ScenarioConfig `yaml:"scenarios" validate:"required,dive"`
}

type GlobalConfig struct {
	ResultBasepath string `yaml:"result_basepath"`
	ResultFilename string `yaml:"result_filename"`
	// Write results to the results file. Defaults to true.
	Checkpointing *bool `yaml:"checkpointing"`
}

func (g GlobalConfig) CheckpointingEnabled() bool {
	return g.Checkpointing == nil || *g.Checkpointing
}

type PlatformConfig struct {
	Key     string `yaml:"key" validate:"required"`
	Label   string `yaml:"label" validate:"required"`
	RootURI string `yaml:"root_uri" validate:"required,url"`
	// Defaults to 1.
	NumWorkers *int `yaml:"num_workers" validate:"omitempty,min=1"`
	// Defaults to true.
	VerifySSL       *bool       `yaml:"verify_ssl"`
	LocationTrusted bool        `yaml:"location_trusted"`
	Auth            *AuthConfig `yaml:"auth"`
	// Overrides by scenario key.
	Scenarios map[string]PlatformScenarioOverride `yaml:"scenarios" validate:"omitempty,dive"`
}

type AuthConfig struct {
	Type        string            `yaml:"type" validate:"required,oneof=basic oauth"`
	Credentials CredentialsConfig `yaml:"credentials"`
}

type CredentialsConfig struct {
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	ClientID           string `yaml:"client_id"`
	ClientSecret       string `yaml:"client_secret"`
	TokenURL           string `yaml:"token_url"`
	GrantType          string `yaml:"grant_type"`
	Scope              string `yaml:"scope"`
	TokenRequiresScope bool   `yaml:"token_requires_scope"`
}

// PlatformScenarioOverride tunes a scenario when it runs on a given platform.
type PlatformScenarioOverride struct {
	NumWorkers *int                  `yaml:"num_workers" validate:"omitempty,min=1"`
	Cases      map[string]CaseConfig `yaml:"cases"`
}

// CaseConfig is the raw configuration of one test case. Unknown keys are kept so that platform overrides
// can carry them through.
type CaseConfig map[string]any

type ScenarioConfig struct {
	Key  string `yaml:"key" validate:"required"`
	Name string `yaml:"name" validate:"required"`
	// Dotted reference to the scenario implementation; only the last segment is used.
	Path                string                `yaml:"path" validate:"required"`
	NumWorkers          *int                  `yaml:"num_workers" validate:"omitempty,min=1"`
	DefaultPlatform     *PlatformConfig       `yaml:"default_platform" validate:"required"`
	CompatiblePlatforms []string              `yaml:"compatible_platforms"`
	Services            []string              `yaml:"services"`
	Cases               map[string]CaseConfig `yaml:"cases"`
}

// Load reads the configuration file at path. The result still needs to be validated.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, errors.WithStack(&yasubeerrors.ErrConfigFileNotFound{Path: path})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(&yasubeerrors.ErrConfigNotReadable{Path: path, Cause: err})
	}
	return Parse(data)
}

// Parse decodes a YAML document. Anchors and aliases are resolved, which is how scenarios usually refer to
// their default platform.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "invalid configuration file")
	}
	return c, nil
}

// Spec converts the platform configuration for the transport layer.
func (p PlatformConfig) Spec() platform.Spec {
	spec := platform.Spec{
		Key:            p.Key,
		Label:          p.Label,
		RootURI:        p.RootURI,
		NumWorkers:     1,
		VerifyTLS:      p.VerifySSL == nil || *p.VerifySSL,
		TrustRedirects: p.LocationTrusted,
	}
	if p.NumWorkers != nil {
		spec.NumWorkers = *p.NumWorkers
	}
	if p.Auth != nil {
		c := p.Auth.Credentials
		spec.Auth = platform.Auth{
			Type: platform.AuthType(p.Auth.Type),
			Credentials: platform.Credentials{
				Username:           c.Username,
				Password:           c.Password,
				ClientID:           c.ClientID,
				ClientSecret:       c.ClientSecret,
				TokenURL:           c.TokenURL,
				GrantType:          platform.GrantType(c.GrantType),
				Scope:              c.Scope,
				TokenRequiresScope: c.TokenRequiresScope,
			},
		}
	}
	return spec
}
