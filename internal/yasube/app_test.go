package yasube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

const configTemplate = `
global:
  result_filename: results.json

platforms:
  DHUS: &DHUS
    key: DHUS
    label: Data Hub
    root_uri: %[1]s/odata/v1/
  CADIP: &CADIP
    key: CADIP
    label: CADIP
    root_uri: %[1]s/cadip/

services: [DHUS, CADIP]

scenarios:
  TS01:
    key: TS01
    name: Products list
    path: cba.scenarios.test_scenario_01.TestScenario01
    default_platform: *DHUS
    compatible_platforms: [DHUS, CADIP]
    services: [DHUS]
    cases:
      TestCase001:
        requests_count: 2
  TS07:
    key: TS07
    name: Session detail
    path: cba.scenarios.test_scenario_07.TestScenario07
    default_platform: *CADIP
    compatible_platforms: [CADIP]
    services: [CADIP]
`

func writeConfig(t *testing.T, rootURI string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(configTemplate, rootURI)), 0o644))
	return path
}

func testApp(configPath string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	app := New()
	app.Out = out
	app.Params.ConfigPath = configPath
	return app, out
}

func TestApp_Echo(t *testing.T) {
	app, out := testApp(writeConfig(t, "https://example.com"))
	app.Params.Echo = true

	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Configured platforms:")
	assert.Contains(t, out.String(), "https://example.com/odata/v1/")
	assert.Contains(t, out.String(), "Session detail")
}

func TestApp_DryRun(t *testing.T) {
	tests := map[string]struct {
		params  Params
		want    []string
		notWant []string
	}{
		"defaults":     {want: []string{"TS01", "TS07"}},
		"by service":   {params: Params{Services: []string{"CADIP"}}, want: []string{"TS07"}, notWant: []string{"TS01"}},
		"on platform":  {params: Params{Platform: "CADIP"}, want: []string{"TS01", "TS07"}},
		"one scenario": {params: Params{Scenarios: []string{"TS01"}, Platform: "CADIP"}, want: []string{"TS01"}, notWant: []string{"TS07"}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app, out := testApp(writeConfig(t, "https://example.com"))
			params := tc.params
			params.ConfigPath = app.Params.ConfigPath
			params.DryRun = true
			app.Params = &params

			require.NoError(t, app.Run(context.Background()))

			assert.Contains(t, out.String(), "Execution plan:")
			for _, want := range tc.want {
				assert.Contains(t, out.String(), want)
			}
			for _, notWant := range tc.notWant {
				assert.NotContains(t, out.String(), notWant)
			}
		})
	}
}

func TestApp_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"value":[{"Id":"a"},{"Id":"b"}]}`)
	}))
	defer server.Close()
	resultDir := t.TempDir()
	app, out := testApp(writeConfig(t, server.URL))
	app.Params.ResultBasepath = resultDir

	require.NoError(t, app.Run(context.Background()))

	assert.Contains(t, out.String(), "Ran 2 scenario(s)")
	assert.Contains(t, out.String(), "Completed: 2")
	data, err := os.ReadFile(filepath.Join(resultDir, "results.json"))
	require.NoError(t, err)
	var results struct {
		TestResults []struct {
			TestName string           `json:"testName"`
			Metrics  []map[string]any `json:"metrics"`
		} `json:"testResults"`
	}
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results.TestResults, 2)
	assert.Equal(t, "Products list", results.TestResults[0].TestName)
	assert.Len(t, results.TestResults[0].Metrics, 5)
	assert.Equal(t, "Session detail", results.TestResults[1].TestName)
	assert.Len(t, results.TestResults[1].Metrics, 3)
}

func TestApp_ConfigurationErrors(t *testing.T) {
	app, _ := testApp(filepath.Join(t.TempDir(), "missing.yaml"))
	err := app.Run(context.Background())
	assert.NotEqual(t, 0, yasubeerrors.ExitCode(err))
	var notFound *yasubeerrors.ErrConfigFileNotFound
	assert.ErrorAs(t, err, &notFound)

	app, _ = testApp(writeConfig(t, "https://example.com"))
	app.Params.Platform = "LTA"
	assert.Error(t, app.Run(context.Background()))

	app, _ = testApp(writeConfig(t, "https://example.com"))
	app.Params.Services = []string{"AUXIP"}
	assert.Error(t, app.Run(context.Background()))

	app, _ = testApp(writeConfig(t, "https://example.com"))
	app.Params.Scenarios = []string{"TS99"}
	app.Params.DryRun = true
	assert.Error(t, app.Run(context.Background()))
}

func TestApp_Version(t *testing.T) {
	app, out := testApp("")
	require.NoError(t, app.Version())
	assert.Contains(t, out.String(), "Version:")
	assert.Contains(t, out.String(), "Go version:")
}
