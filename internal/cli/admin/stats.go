package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldstack/mechanic/internal/repository"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/spf13/cobra"
)

func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		Long:  "Show atom counts, verification coverage, and the pending gap backlog",
		RunE:  runStats,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, cfg, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	atomRepo := repository.NewAtomRepository(pool, cfg.EmbeddingDimensions)
	gapRepo := repository.NewGapRepository(pool)
	txRunner := repository.NewTxRunner(pool, cfg.EmbeddingDimensions)
	svc := service.NewAtomService(atomRepo, gapRepo, nil, txRunner)

	stats, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"total_atoms":    stats.TotalAtoms,
			"verified_atoms": stats.VerifiedAtoms,
			"avg_confidence": stats.AvgConfidence,
			"pending_gaps":   stats.PendingGaps,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Atoms:          %d\n", stats.TotalAtoms)
	fmt.Printf("Verified:       %d\n", stats.VerifiedAtoms)
	fmt.Printf("Avg confidence: %.2f\n", stats.AvgConfidence)
	fmt.Printf("Pending gaps:   %d\n", stats.PendingGaps)
	return nil
}
