package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldstack/mechanic/internal/repository"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/spf13/cobra"
)

func GapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Manage knowledge gaps",
		Long:  "Inspect and triage the knowledge gap queue directly against the database",
	}

	cmd.AddCommand(GapsListCmd())
	cmd.AddCommand(GapsDismissCmd())

	return cmd
}

func GapsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending knowledge gaps",
		Long:  "List pending knowledge gaps ordered by research priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runGapsList(limit, outputFormat)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of gaps to list")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runGapsList(limit int, outputFormat string) error {
	ctx := context.Background()

	pool, _, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := service.NewGapService(repository.NewGapRepository(pool))
	gaps, err := svc.PendingQueue(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list gaps: %w", err)
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(gaps, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if len(gaps) == 0 {
		fmt.Println("No pending gaps")
		return nil
	}

	fmt.Printf("%-36s  %8s  %5s  %-14s  %s\n", "ID", "PRIORITY", "SEEN", "MANUFACTURER", "QUERY")
	for _, g := range gaps {
		manufacturer := g.Manufacturer
		if manufacturer == "" {
			manufacturer = "-"
		}
		query := g.Query
		if len(query) > 60 {
			query = query[:57] + "..."
		}
		fmt.Printf("%-36s  %8.2f  %5d  %-14s  %s\n", g.ID, g.Priority, g.OccurrenceCount, manufacturer, query)
	}
	return nil
}

func GapsDismissCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a pending knowledge gap",
		Long:  "Mark a pending knowledge gap as failed research so it no longer occupies the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, _, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := service.NewGapService(repository.NewGapRepository(pool))
			if err := svc.Dismiss(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to dismiss gap: %w", err)
			}

			fmt.Printf("Gap %s dismissed\n", args[0])
			return nil
		},
	}

	return cmd
}
