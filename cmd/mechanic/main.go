package main

import (
	"fmt"
	"os"

	"github.com/fieldstack/mechanic/internal/cli"
	"github.com/fieldstack/mechanic/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mechanic",
		Short: "Mechanic CLI - equipment troubleshooting from the shop floor",
		Long: `Mechanic CLI asks the troubleshooting service questions and works its
knowledge base from the command line.

Environment variables:
  MECHANIC_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.AtomsCmd())
	rootCmd.AddCommand(client.GapsCmd())
	rootCmd.AddCommand(client.StatsCmd())
	rootCmd.AddCommand(client.ManualCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
