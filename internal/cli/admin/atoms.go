package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/openai"
	"github.com/fieldstack/mechanic/internal/repository"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/spf13/cobra"
)

func AtomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atoms",
		Short: "Manage knowledge atoms",
		Long:  "Import and inspect knowledge atoms directly against the database",
	}

	cmd.AddCommand(AtomsImportCmd())

	return cmd
}

// atomImportRecord is one entry of an import file: a JSON array of these.
type atomImportRecord struct {
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

func AtomsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import knowledge atoms from a JSON file",
		Long: `Import knowledge atoms from a JSON file containing an array of atoms.

Atoms are embedded inline when OPENAI_API_KEY is set; otherwise they are
stored unembedded and picked up by the server's backfill worker.`,
		Args: cobra.ExactArgs(1),
		RunE: runAtomsImport,
	}

	return cmd
}

func runAtomsImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var records []atomImportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("import file contains no atoms")
	}

	pool, cfg, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	atomRepo := repository.NewAtomRepository(pool, cfg.EmbeddingDimensions)
	gapRepo := repository.NewGapRepository(pool)
	txRunner := repository.NewTxRunner(pool, cfg.EmbeddingDimensions)

	var embedder service.AtomEmbedder
	if cfg.HasOpenAI() {
		embedder = openai.NewClient(cfg.OpenAIAPIKey)
	}

	svc := service.NewAtomService(atomRepo, gapRepo, embedder, txRunner)

	imported := 0
	for i, rec := range records {
		_, err := svc.Create(ctx, service.CreateAtomInput{
			Type:          domain.AtomType(rec.Type),
			Manufacturer:  rec.Manufacturer,
			Model:         rec.Model,
			EquipmentType: rec.EquipmentType,
			Title:         rec.Title,
			Content:       rec.Content,
			SourceURL:     rec.SourceURL,
			Confidence:    rec.Confidence,
			HumanVerified: rec.HumanVerified,
		})
		if err != nil {
			return fmt.Errorf("atom %d (%q): %w", i, rec.Title, err)
		}
		imported++
	}

	if embedder == nil {
		fmt.Printf("Imported %d atoms (unembedded; backfill will embed them)\n", imported)
	} else {
		fmt.Printf("Imported %d atoms\n", imported)
	}
	return nil
}
