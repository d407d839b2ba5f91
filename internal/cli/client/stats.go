package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Stats mirrors the stats API response.
type Stats struct {
	TotalAtoms    int     `json:"total_atoms"`
	VerifiedAtoms int     `json:"verified_atoms"`
	AvgConfidence float64 `json:"avg_confidence"`
	PendingGaps   int     `json:"pending_gaps"`
	TopAtoms      []*Atom `json:"top_atoms,omitempty"`
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(cmd, outputJSON)
		},
	}
}

func runStats(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/stats")
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	var stats Stats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Atoms:          %d\n", stats.TotalAtoms)
	fmt.Printf("Verified:       %d\n", stats.VerifiedAtoms)
	fmt.Printf("Avg confidence: %.2f\n", stats.AvgConfidence)
	fmt.Printf("Pending gaps:   %d\n", stats.PendingGaps)

	if len(stats.TopAtoms) > 0 {
		fmt.Println("\nMost used atoms:")
		for _, a := range stats.TopAtoms {
			fmt.Printf("  %4dx  %s\n", a.UsageCount, a.Title)
		}
	}
	return nil
}
