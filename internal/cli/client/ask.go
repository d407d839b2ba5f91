package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskEquipment carries the known equipment context for a troubleshooting query.
type AskEquipment struct {
	Manufacturer  string `json:"manufacturer,omitempty"`
	Model         string `json:"model,omitempty"`
	FaultCode     string `json:"fault_code,omitempty"`
	EquipmentType string `json:"equipment_type,omitempty"`
}

// AskRequest represents the troubleshoot API request.
type AskRequest struct {
	Query     string        `json:"query"`
	Equipment *AskEquipment `json:"equipment,omitempty"`
}

// AskResponse represents the troubleshoot API response.
type AskResponse struct {
	Answer              string   `json:"answer"`
	Route               string   `json:"route"`
	Confidence          float64  `json:"confidence"`
	Sources             []string `json:"sources"`
	SafetyWarnings      []string `json:"safety_warnings"`
	ClarificationPrompt string   `json:"clarification_prompt"`
	GapLogged           bool     `json:"gap_logged"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var equip AskEquipment

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask a troubleshooting question",
		Long:  "Runs a troubleshooting query through the routing core and prints the answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], equip, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&equip.Manufacturer, "manufacturer", "m", "", "Equipment manufacturer")
	cmd.Flags().StringVar(&equip.Model, "model", "", "Equipment model")
	cmd.Flags().StringVar(&equip.FaultCode, "fault-code", "", "Displayed fault or alarm code")
	cmd.Flags().StringVar(&equip.EquipmentType, "equipment-type", "", "Equipment type (vfd, plc, robot, ...)")

	return cmd
}

func runAsk(cmd *cobra.Command, query string, equip AskEquipment, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := AskRequest{Query: query}
	if equip != (AskEquipment{}) {
		req.Equipment = &equip
	}

	resp, err := api.Post("/troubleshoot", req)
	if err != nil {
		return fmt.Errorf("troubleshoot failed: %w", err)
	}

	var result AskResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	for _, warning := range result.SafetyWarnings {
		fmt.Printf("WARNING: %s\n", warning)
	}
	if len(result.SafetyWarnings) > 0 {
		fmt.Println()
	}

	if result.ClarificationPrompt != "" {
		fmt.Println(result.ClarificationPrompt)
	} else {
		fmt.Println(result.Answer)
	}

	fmt.Println()
	fmt.Printf("route: %s  confidence: %.2f\n", result.Route, result.Confidence)
	if len(result.Sources) > 0 {
		fmt.Printf("sources: %s\n", strings.Join(result.Sources, ", "))
	}
	if result.GapLogged {
		fmt.Println("This question was added to the research queue.")
	}

	return nil
}
