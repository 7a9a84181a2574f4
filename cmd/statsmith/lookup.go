package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith"
	"github.com/statsmith/statsmith/internal/identity"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [NAME|UUID]",
	Short: "Look up the stats of a player",
	Long: `Look up the Hypixel stats of a player by name or uuid.

Examples:
  statsmith lookup Notch
  statsmith lookup 069a79f4-44e9-4726-a5be-fca90e38aaf5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

var (
	outputJSON bool
	showTiming bool
)

func init() {
	lookupCmd.Flags().BoolVar(&outputJSON, "json", false, "output result as JSON")
	lookupCmd.Flags().BoolVar(&showTiming, "timing", false, "show lookup timing")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	svc, stop, err := openService()
	if err != nil {
		return err
	}
	defer stop()

	start := time.Now()
	p, err := svc.Player(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	elapsed := time.Since(start)

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	printPlayer(p, elapsed)
	return nil
}

var (
	label  = color.New(color.FgHiBlack).SprintFunc()
	header = color.New(color.FgCyan, color.Bold).SprintFunc()
	value  = color.New(color.FgWhite, color.Bold).SprintFunc()
)

func printPlayer(p *hypixel.Player, elapsed time.Duration) {
	name := p.DisplayName
	if p.Prefix != "" {
		name = hypixel.StripColors(p.Prefix) + " " + name
	}
	fmt.Println(header(name))
	fmt.Printf("%s %s\n", label("UUID: "), identity.Dashed(p.UUID))
	fmt.Printf("%s %s\n", label("Level:"), value(fmt.Sprintf("%.2f", p.NetworkLevel)))
	fmt.Printf("%s %s\n", label("Karma:"), value(fmt.Sprintf("%.0f", p.Karma)))

	fmt.Println()
	fmt.Println(header("Bed Wars"))
	row("Star", fmt.Sprint(p.BedWars.Level))
	row("Wins", fmt.Sprintf("%.0f", p.BedWars.Wins))
	row("FKDR", fmt.Sprintf("%.2f", p.BedWars.FKDR))

	fmt.Println(header("SkyWars"))
	row("Level", fmt.Sprintf("%.0f", p.SkyWars.Level))
	row("Wins", fmt.Sprintf("%.0f", p.SkyWars.Wins))
	row("KDR", fmt.Sprintf("%.2f", p.SkyWars.KDR))

	fmt.Println(header("Duels"))
	row("Wins", fmt.Sprintf("%.0f", p.Duels.Wins))
	row("WLR", fmt.Sprintf("%.2f", p.Duels.WLR))

	if showTiming {
		fmt.Printf("\n%s %s\n", label("Time:"), elapsed)
	}
}

func row(name, v string) {
	fmt.Printf("  %s %s\n", label(fmt.Sprintf("%-6s", name)), value(v))
}

var leaderboardsCmd = &cobra.Command{
	Use:   "leaderboards",
	Short: "List the available leaderboards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, stop, err := openService()
		if err != nil {
			return err
		}
		defer stop()

		index := svc.Leaderboards()
		for _, c := range leaderboard.Categories {
			names := index[c]
			fmt.Printf("%s %s\n", header(string(c)), label(fmt.Sprintf("(%d)", len(names))))
			if len(names) > 0 {
				fmt.Println("  " + strings.Join(names, "\n  "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaderboardsCmd)
}

// openService builds the service without starting the HTTP server or the
// scheduler.
func openService() (*statsmith.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		log = zap.NewNop()
	}

	var svc *statsmith.Service
	app := newApp(cfg, log, fx.Populate(&svc))
	if err := app.Err(); err != nil {
		return nil, nil, err
	}
	return svc, func() { _ = svc.Close() }, nil
}
