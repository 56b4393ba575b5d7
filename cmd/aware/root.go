package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/aware/internal/cli"
	"github.com/aretw0/aware/pkg/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aware",
	Short: "aware dispatches signals through a world of connected locations",
	Long: `aware delivers hierarchical signals to the subscribers within reach of the
thrower, closest first. Subscriptions, the world fixture and the store are
taken from the configuration file and AWARE_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path of the YAML configuration file")
	rootCmd.PersistentFlags().StringP("world", "w", "", "Path of the YAML world fixture (overrides the configuration)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides the configuration)")
}

// loadConfig reads the configuration named by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if world, _ := cmd.Flags().GetString("world"); world != "" {
		cfg.World = world
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, nil
}

// buildStack loads the configuration and wires an engine from it.
func buildStack(ctx context.Context, cmd *cobra.Command) (*config.Config, *cli.Stack, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	stack, err := cli.Build(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, stack, nil
}
