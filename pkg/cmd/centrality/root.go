package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-centrality-service/pkg/centrality"
)

// app is shared by every subcommand of one invocation
type app struct {
	config     *centrality.Config
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{config: centrality.NewConfig()}

	root := &cobra.Command{
		Use:           "centrality",
		Short:         "Closeness and betweenness centrality for directed graphs",
		Long:          "Centrality ranks the nodes of a directed multigraph by closeness and by betweenness (Brandes' algorithm).",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")

	root.AddCommand(newComputeCmd(a), newServeCmd(a), newConfigCmd(a))
	return root
}

// setup loads the config file and configures the global logger
func (a *app) setup() error {
	if a.configFile != "" {
		if err := a.config.LoadFromFile(a.configFile); err != nil {
			return fmt.Errorf("failed to load config %s: %w", a.configFile, err)
		}
	}
	if a.logLevel != "" {
		a.config.Set("logging.level", a.logLevel)
	}

	if err := applyLogLevel(a.config.LogLevel()); err != nil {
		return err
	}
	// Filtering happens through the global level so it can change at runtime.
	log.Logger = a.config.CreateLogger().Level(zerolog.TraceLevel)
	return nil
}

func applyLogLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
