package configuration

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

// Execution is one scenario to run on one platform.
type Execution struct {
	Scenario ScenarioConfig
	Platform PlatformConfig
}

// Plan is an ordered list of executions.
type Plan []Execution

// SelectScenarios picks the scenarios a run is made of. Explicit keys win; otherwise scenarios tagged with
// any of the services are selected; with neither, every scenario is. Scenarios come back sorted by key.
func (c *Config) SelectScenarios(keys, services []string) ([]ScenarioConfig, error) {
	var selected []ScenarioConfig
	switch {
	case len(keys) > 0:
		for _, key := range keys {
			if _, ok := c.Scenarios[key]; !ok {
				return nil, errors.WithStack(&yasubeerrors.ErrNotFound{Type: "scenario", Value: key})
			}
		}
		for _, key := range sortedKeys(c.Scenarios) {
			if slices.Contains(keys, key) {
				selected = append(selected, c.Scenarios[key])
			}
		}
	case len(services) > 0:
		for _, key := range sortedKeys(c.Scenarios) {
			s := c.Scenarios[key]
			for _, service := range s.Services {
				if slices.Contains(services, service) {
					selected = append(selected, s)
					break
				}
			}
		}
	default:
		for _, key := range sortedKeys(c.Scenarios) {
			selected = append(selected, c.Scenarios[key])
		}
	}
	return selected, nil
}

// CompatibleScenarios keeps the scenarios that declare platformKey as compatible.
func CompatibleScenarios(scenarios []ScenarioConfig, platformKey string) []ScenarioConfig {
	var out []ScenarioConfig
	for _, s := range scenarios {
		if slices.Contains(s.CompatiblePlatforms, platformKey) {
			out = append(out, s)
		}
	}
	return out
}

// BuildPlan pairs each scenario with a platform: the one named by platformKey, restricted to compatible
// scenarios, or else each scenario's default platform.
func (c *Config) BuildPlan(scenarios []ScenarioConfig, platformKey string) (Plan, error) {
	var plan Plan
	if platformKey != "" {
		p, ok := c.Platforms[platformKey]
		if !ok {
			return nil, errors.WithStack(&yasubeerrors.ErrNotFound{Type: "platform", Value: platformKey})
		}
		for _, s := range CompatibleScenarios(scenarios, platformKey) {
			plan = append(plan, Execution{Scenario: s, Platform: p})
		}
		return plan, nil
	}
	for _, s := range scenarios {
		if s.DefaultPlatform == nil {
			return nil, errors.WithStack(&yasubeerrors.ErrInvalidArgument{
				Name:    fmt.Sprintf("scenarios[%s].default_platform", s.Key),
				Message: "field is required but was not found",
			})
		}
		plan = append(plan, Execution{Scenario: s, Platform: *s.DefaultPlatform})
	}
	return plan, nil
}
