package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith/fx/statsmithfx"
	"github.com/statsmith/statsmith/internal/config"
)

var (
	// Global flags.
	configPath string
	envFile    string
	listen     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "statsmith",
	Short: "Hypixel stats, leaderboards and stat cards",
	Long: `Statsmith aggregates Hypixel player, guild and SkyBlock data, ranks
players on leaderboards and renders PNG stat cards.

Examples:
  # Serve the HTTP API
  statsmith serve --config statsmith.yaml

  # Look up a player
  statsmith lookup Notch

  # List the available leaderboards
  statsmith leaderboards`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to a .env file")
	rootCmd.PersistentFlags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig loads the layered configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if listen != "" {
		cfg.Listen = listen
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newApp assembles the fx application around the statsmith module.
func newApp(cfg *config.Config, log *zap.Logger, opts ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{
		fx.Supply(cfg, log),
		fx.WithLogger(func() fxevent.Logger {
			if !verbose {
				return fxevent.NopLogger
			}
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		statsmithfx.Module,
	}, opts...)...)
}
