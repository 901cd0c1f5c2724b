// Package main implements the propgrid binary: the view service and the
// command-line tools around it.
package main

import (
	"fmt"
	"os"

	"github.com/propgrid/propgrid/internal/config"
	"github.com/propgrid/propgrid/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	// Global flags
	configFile  string
	dataDir     string
	logLevel    string
	development bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "propgrid",
	Short: "propgrid - filtered, sorted and paginated property views",
	Long: `propgrid serves tabular views over property datasets.

Views are resolved by filtering on the dataset's searchable fields, stably
sorting on one column and slicing the requested page. The same pipeline is
available over HTTP, gRPC and from this command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configFile)
		if err != nil {
			return err
		}

		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "propgrid version %s (commit: %s)\n", version, commit)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "base directory for all data files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&development, "dev", false, "human-readable development logging")

	rootCmd.AddCommand(serveCmd, viewCmd, seedCmd, datasetsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(path string) (*config.Config, error) {
	var c *config.Config
	var err error

	if path != "" {
		c, err = config.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		c = config.DefaultConfig()
	}

	config.LoadFromEnv(c)

	// Command line flags take priority
	if dataDir != "" {
		c.DataDir = dataDir
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if development {
		c.Logging.Development = true
	}

	c.Resolve()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
