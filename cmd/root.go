// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/internal/config"
	"github.com/xkilldash9x/remedy/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// annotationStdoutData marks commands whose stdout carries output data, so
// console logging is sent to stderr instead.
const annotationStdoutData = "remedy/stdout-data"

// NewRootCommand builds a fresh command tree. Each call is independent, which
// keeps flag state from leaking between executions and tests.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile      string
		cacheBackend string
		cachePath    string
	)

	rootCmd := &cobra.Command{
		Use:           "remedy",
		Short:         "Remedy diagnoses code errors and proposes validated fixes.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			// 1. Layer the config file and REMEDY_ environment over the defaults.
			if err := initializeConfig(v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Build and validate the config object.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// 3. Flags win over file and environment.
			if cmd.Flags().Changed("cache-backend") {
				cfg.SetCacheBackend(cacheBackend)
			}
			if cmd.Flags().Changed("cache-path") {
				cfg.SetCachePath(cachePath)
			}
			applyServeOverrides(cmd, cfg)

			// 4. Logging. Stdout is reserved when it carries data or protocol frames.
			if logsToStderr(cmd, cfg) {
				observability.InitializeStderrLogger(cfg.Logger())
			} else {
				observability.InitializeLogger(cfg.Logger())
			}
			observability.GetLogger().Debug("Starting remedy.",
				zap.String("version", Version),
				zap.String("command", cmd.CommandPath()),
			)

			// 5. Hand the config to the subcommand.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, config.Interface(cfg)))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./remedy.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "", "result cache backend: sqlite or postgres (overrides config/env)")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache-path", "", "SQLite cache file (overrides config/env)")
	rootCmd.SetVersionTemplate(`{{printf "remedy version %s\n" .Version}}`)

	rootCmd.AddCommand(
		newServeCmd(),
		newDiagnoseCmd(),
		newFixCmd(),
		newClassifyCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI against os.Args with a signal-aware context.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed.", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file and enables REMEDY_ environment
// overrides. A missing default config file is not an error.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("remedy")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("REMEDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func logsToStderr(cmd *cobra.Command, cfg config.Interface) bool {
	if cmd.Annotations[annotationStdoutData] == "true" {
		return true
	}
	return cmd.Name() == "serve" && cfg.MCP().Transport == config.TransportStdio
}

// configFrom returns the config stored by the root PersistentPreRunE.
func configFrom(cmd *cobra.Command) (config.Interface, error) {
	cfg, ok := cmd.Context().Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

var stdoutData = map[string]string{annotationStdoutData: "true"}
