package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the stats API until interrupted.

Leaderboards are rebuilt on the configured interval, caches are swept every
minute and a usage summary is sent at midnight.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	app := newApp(cfg, log)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
