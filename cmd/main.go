package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ochronus/gonekoweb/internal/app"
	"github.com/ochronus/gonekoweb/internal/config"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	// Get default config path
	defaultConfigPath, err := config.DefaultConfigPath()
	if err != nil {
		defaultConfigPath = "./config.toml"
	}

	rootCmd := &cobra.Command{
		Use:           "gonekoweb",
		Short:         "Nekoweb site management from the command line",
		Long:          "Manage the files of a Nekoweb site: list, upload, edit, rename and delete files, import zip archives and deploy whole directories.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to config file")

	rootCmd.AddCommand(
		siteCmd(),
		limitsCmd(),
		lsCmd(),
		touchCmd(),
		mkdirCmd(),
		uploadCmd(),
		importCmd(),
		mvCmd(),
		editCmd(),
		rmCmd(),
		deployCmd(),
		mockServerCmd(),
		generateConfigCmd(),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadContainer loads and validates the configuration and builds the
// container. A missing file is only an error when --config was given.
func loadContainer(cmd *cobra.Command) (*app.Container, error) {
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.LoadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	container, err := app.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", err)
	}
	return container, nil
}
