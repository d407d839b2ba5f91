package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Atom mirrors the atom API response.
type Atom struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Manufacturer   string  `json:"manufacturer,omitempty"`
	Model          string  `json:"model,omitempty"`
	EquipmentType  string  `json:"equipment_type,omitempty"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	SourceURL      string  `json:"source_url,omitempty"`
	Confidence     float64 `json:"confidence"`
	HumanVerified  bool    `json:"human_verified"`
	UsageCount     int     `json:"usage_count"`
	SupersededBy   string  `json:"superseded_by,omitempty"`
	CreatedAt      string  `json:"created_at"`
	LastVerifiedAt string  `json:"last_verified_at"`
}

// AtomList mirrors the paginated atom list response.
type AtomList struct {
	Items   []*Atom `json:"items"`
	Cursor  string  `json:"cursor,omitempty"`
	HasMore bool    `json:"has_more"`
}

// CreateAtom is the request body for creating or promoting an atom.
type CreateAtom struct {
	Type          string  `json:"type"`
	Manufacturer  string  `json:"manufacturer,omitempty"`
	Model         string  `json:"model,omitempty"`
	EquipmentType string  `json:"equipment_type,omitempty"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	SourceURL     string  `json:"source_url,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	HumanVerified bool    `json:"human_verified,omitempty"`
}

func addCreateAtomFlags(cmd *cobra.Command, atom *CreateAtom) {
	cmd.Flags().StringVarP(&atom.Type, "type", "t", "fault", "Atom type (fault, procedure, spec, part, tip, safety)")
	cmd.Flags().StringVarP(&atom.Manufacturer, "manufacturer", "m", "", "Equipment manufacturer")
	cmd.Flags().StringVar(&atom.Model, "model", "", "Equipment model")
	cmd.Flags().StringVar(&atom.EquipmentType, "equipment-type", "", "Equipment type (vfd, plc, robot, ...)")
	cmd.Flags().StringVar(&atom.Title, "title", "", "Atom title")
	cmd.Flags().StringVar(&atom.Content, "content", "", "Atom content")
	cmd.Flags().StringVar(&atom.SourceURL, "source-url", "", "Source document URL")
	cmd.Flags().Float64Var(&atom.Confidence, "confidence", 0.7, "Initial confidence (0..1)")
	cmd.Flags().BoolVar(&atom.HumanVerified, "verified", false, "Mark as human verified")
}

// AtomsCmd creates the atoms command group.
func AtomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atoms",
		Short: "Manage knowledge atoms",
	}

	cmd.AddCommand(atomsListCmd())
	cmd.AddCommand(atomsGetCmd())
	cmd.AddCommand(atomsAddCmd())
	cmd.AddCommand(atomsVerifyCmd())

	return cmd
}

func atomsListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge atoms, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAtomsList(cmd, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of atoms")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runAtomsList(cmd *cobra.Command, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/atoms?limit=%d", limit)
	if cursor != "" {
		path += "&cursor=" + cursor
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to list atoms: %w", err)
	}

	var list AtomList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		jsonBytes, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	for _, a := range list.Items {
		verified := ""
		if a.HumanVerified {
			verified = " [verified]"
		}
		fmt.Printf("%s  %-9s  %.2f%s  %s\n", a.ID, a.Type, a.Confidence, verified, a.Title)
	}
	if list.HasMore {
		fmt.Printf("\nMore results: --cursor %s\n", list.Cursor)
	}
	return nil
}

func atomsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a knowledge atom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/atoms/" + args[0])
			if err != nil {
				return fmt.Errorf("failed to get atom: %w", err)
			}

			var atom Atom
			if err := json.Unmarshal(resp.Data, &atom); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			jsonBytes, _ := json.MarshalIndent(atom, "", "  ")
			fmt.Println(string(jsonBytes))
			return nil
		},
	}
}

func atomsAddCmd() *cobra.Command {
	var atom CreateAtom

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a knowledge atom",
		RunE: func(cmd *cobra.Command, args []string) error {
			if atom.Title == "" || atom.Content == "" {
				return fmt.Errorf("--title and --content are required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/atoms", atom)
			if err != nil {
				return fmt.Errorf("failed to create atom: %w", err)
			}

			var created Atom
			if err := json.Unmarshal(resp.Data, &created); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			fmt.Printf("Atom %s created\n", created.ID)
			return nil
		},
	}

	addCreateAtomFlags(cmd, &atom)

	return cmd
}

func atomsVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Mark a knowledge atom as human verified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if _, err := api.Post("/atoms/"+args[0]+"/verify", nil); err != nil {
				return fmt.Errorf("failed to verify atom: %w", err)
			}
			fmt.Printf("Atom %s verified\n", args[0])
			return nil
		},
	}
}
