package main

import (
	"fmt"
	"os"

	"github.com/fieldstack/mechanic/internal/cli"
	"github.com/fieldstack/mechanic/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mechanicd",
		Short: "Mechanic daemon and admin CLI",
		Long:  "Mechanic daemon for running the troubleshooting API server and administering the knowledge base",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.AtomsCmd())
	rootCmd.AddCommand(admin.GapsCmd())
	rootCmd.AddCommand(admin.StatsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
