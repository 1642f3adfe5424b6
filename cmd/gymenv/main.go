// Command gymenv runs, serves and reports on the grid world environments.
package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
	)

	rootCmd := &cobra.Command{
		Use:           "gymenv",
		Short:         "Run reinforcement learning environments locally or as a gRPC service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(configPath, envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (defaults to ./.env when present)")

	rootCmd.AddCommand(
		newPlayCmd(),
		newServeCmd(),
		newReportCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig reads the .env file, the config file and the APP_ENV overlay,
// then sets up logging from the result.
func loadConfig(configPath, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err
		}
	} else {
		for _, f := range []string{".env", "../.env", "../../.env"} {
			if err := godotenv.Load(f); err == nil {
				break
			}
		}
	}

	if err := config.Init(configPath); err != nil {
		return err
	}
	if appEnv := os.Getenv("APP_ENV"); appEnv != "" {
		if err := config.LoadEnvironmentConfig(appEnv); err != nil {
			return err
		}
	}

	setupLogging(config.Get().Logging)
	if path := config.ConfigFilePath(); path != "" {
		log.Debug().Str("path", path).Msg("Loaded config file")
	}
	return nil
}

func setupLogging(cfg config.LoggingConfig) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if os.Getenv("APP_ENV") == "production" || cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
