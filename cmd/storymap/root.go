package main

import (
	"github.com/dd0wney/cluso-storymap/pkg/api"
	"github.com/dd0wney/cluso-storymap/pkg/config"
	"github.com/dd0wney/cluso-storymap/pkg/logging"
	"github.com/spf13/cobra"
)

// app holds what the persistent flags resolve to before a subcommand runs
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "storymap",
		Short: "Force-directed layouts for story entity graphs",
		Long: brand.Sprint("storymap") + " places characters, locations and organizations on a canvas\n" +
			subtle.Sprint("Lay out graph documents, serve the layout API or watch a layout settle in the terminal"),
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("storymap {{ .Version }}\n")

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config)")

	root.AddCommand(
		a.layoutCmd(),
		a.serveCmd(),
		a.viewCmd(),
	)
	return root
}

// setup loads the config and installs the stderr logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	a.cfg = cfg
	a.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), cfg.LogLevel()).
		With(logging.Component("cli"))
	logging.SetDefaultLogger(a.logger)
	return nil
}
