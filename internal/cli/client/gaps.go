package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Gap mirrors the gap API response.
type Gap struct {
	ID              string  `json:"id"`
	Query           string  `json:"query"`
	Manufacturer    string  `json:"manufacturer,omitempty"`
	Model           string  `json:"model,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	OccurrenceCount int     `json:"occurrence_count"`
	Priority        float64 `json:"priority"`
	ResearchStatus  string  `json:"research_status"`
	ResolvedAtomID  string  `json:"resolved_atom_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// GapsCmd creates the gaps command group.
func GapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "Work the knowledge gap queue",
		Long:  "List, claim, resolve, and dismiss knowledge gaps logged by low-confidence queries.",
	}

	cmd.AddCommand(gapsListCmd())
	cmd.AddCommand(gapsClaimCmd())
	cmd.AddCommand(gapsResolveCmd())
	cmd.AddCommand(gapsDismissCmd())

	return cmd
}

func gapsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending gaps by research priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGapsList(cmd, limit, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of gaps")

	return cmd
}

func runGapsList(cmd *cobra.Command, limit int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/gaps/pending?limit=%d", limit))
	if err != nil {
		return fmt.Errorf("failed to list gaps: %w", err)
	}

	var gaps []Gap
	if err := json.Unmarshal(resp.Data, &gaps); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(gaps, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if len(gaps) == 0 {
		fmt.Println("No pending gaps")
		return nil
	}

	for _, g := range gaps {
		vendor := g.Manufacturer
		if vendor == "" {
			vendor = "unknown vendor"
		}
		fmt.Printf("%s  priority %.2f, seen %dx, %s\n  %s\n", g.ID, g.Priority, g.OccurrenceCount, vendor, g.Query)
	}
	return nil
}

func gapsClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim a gap for research",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if _, err := api.Post("/gaps/"+args[0]+"/claim", nil); err != nil {
				return fmt.Errorf("failed to claim gap: %w", err)
			}
			fmt.Printf("Gap %s claimed\n", args[0])
			return nil
		},
	}
}

func gapsResolveCmd() *cobra.Command {
	var atom CreateAtom

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a gap by promoting it to a knowledge atom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/gaps/"+args[0]+"/resolve", atom)
			if err != nil {
				return fmt.Errorf("failed to resolve gap: %w", err)
			}

			var created Atom
			if err := json.Unmarshal(resp.Data, &created); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			fmt.Printf("Gap %s resolved, atom %s created\n", args[0], created.ID)
			return nil
		},
	}

	addCreateAtomFlags(cmd, &atom)

	return cmd
}

func gapsDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a gap without resolving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if _, err := api.Post("/gaps/"+args[0]+"/dismiss", nil); err != nil {
				return fmt.Errorf("failed to dismiss gap: %w", err)
			}
			fmt.Printf("Gap %s dismissed\n", args[0])
			return nil
		},
	}
}
