package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "filehub",
	Short: "FileHub",
	Long:  `Collects chat attachments into a shared file store and serves the team's file hub.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration with defaults applied. Callers validate
// the sections they need.
func loadConfig(path string) (*internal.Config, error) {
	// Check if we're running in Docker environment
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		return internal.LoadConfigFromEnv(), nil
	}

	// Load configuration from file (development)
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the bot's historical variable names still work in development
	_ = v.BindEnv("discord.token", "ENV_DISCORD_TOKEN", "DISCORD_TOKEN")
	_ = v.BindEnv("discord.api_base_url", "ENV_DISCORD_API_BASE_URL", "API_BASE_URL")
	_ = v.BindEnv("security.api_key", "ENV_SECURITY_API_KEY", "API_KEY")
	_ = v.BindEnv("security.session_secret", "ENV_SECURITY_SESSION_SECRET", "SECRET_KEY")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// setupLogger configures the process logger. Extra writers (the activity log)
// receive the same records as stdout.
func setupLogger(cfg *internal.Config, outputs ...io.Writer) *slog.Logger {
	return logger.Setup(logger.Options{
		Env:     cfg.Environment,
		Level:   cfg.Observability.Logging.Level,
		Format:  cfg.Observability.Logging.Format,
		Outputs: outputs,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yml")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(cleanupCmd)
}
