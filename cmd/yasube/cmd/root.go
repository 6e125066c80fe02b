package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yasube/yasube/internal/common/app"
	"github.com/yasube/yasube/internal/yasube"
)

const envPrefix = "YASUBE"

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	a := yasube.New()
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "yasube [scenario...]",
		Short: "yasube benchmarks remote data product catalogues.",
		Long: `yasube launches the benchmark suite described by a YAML configuration.

By default every configured scenario runs on its default platform.

Scenarios given as arguments run on their default platform, or on the one passed with --platform when
they list it as compatible. They take precedence over --services, which otherwise selects every scenario
tagged with one of the given services.

Every flag can also be set through the environment, e.g. YASUBE_CONF=/etc/yasube.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, v, a, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Run(app.CreateContextWithShutdown())
		},
	}

	cmd.Flags().StringP("conf", "c", "", "The full path to the YAML configuration.")
	cmd.Flags().StringSliceP("services", "s", nil, "The services to run the benchmark on. Ignored when scenarios are given.")
	cmd.Flags().StringP("platform", "p", "", "The platform to use instead of each scenario's default one.")
	cmd.Flags().String("result-basepath", "", "The directory test results are written to. Overrides the configuration file.")
	cmd.Flags().String("result-filename", "", "The name of the test results file. Overrides the configuration file.")
	cmd.Flags().BoolP("echo", "e", false, "Print out the configuration and exit.")
	cmd.Flags().BoolP("dryrun", "d", false, "Do not run any scenario, only print out the execution plan.")
	cmd.Flags().Uint16("metricsPort", 0, "Serve Prometheus metrics on this port while running. 0 disables it.")

	cmd.AddCommand(versionCmd(a))
	return cmd
}

func initParams(cmd *cobra.Command, v *viper.Viper, a *yasube.App, args []string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = errors.WithStack(err)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	a.Params.ConfigPath = v.GetString("conf")
	if a.Params.ConfigPath == "" {
		return errors.New(`required flag "conf" not set`)
	}
	a.Params.Scenarios = args
	a.Params.Services = v.GetStringSlice("services")
	a.Params.Platform = v.GetString("platform")
	a.Params.ResultBasepath = v.GetString("result-basepath")
	a.Params.ResultFilename = v.GetString("result-filename")
	a.Params.Echo = v.GetBool("echo")
	a.Params.DryRun = v.GetBool("dryrun")
	a.Params.MetricsPort = uint16(v.GetUint("metricsPort"))
	return nil
}
