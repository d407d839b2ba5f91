package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Manual mirrors the manual API response.
type Manual struct {
	ID           string `json:"id"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model,omitempty"`
	Filename     string `json:"filename"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type registerManualRequest struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model,omitempty"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type"`
	SHA256       string `json:"sha256"`
}

type registerManualResponse struct {
	Manual    *Manual `json:"manual"`
	UploadURL string  `json:"upload_url"`
}

// ManualCmd creates the manual command group.
func ManualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Manage equipment manuals",
		Long:  "Upload and retrieve equipment manual documents stored in object storage.",
	}

	cmd.AddCommand(manualPushCmd())
	cmd.AddCommand(manualListCmd())
	cmd.AddCommand(manualURLCmd())

	return cmd
}

func manualPushCmd() *cobra.Command {
	var (
		manufacturer string
		model        string
		contentType  string
	)

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload an equipment manual",
		Long:  "Registers the manual, uploads the file through a presigned URL, and confirms the upload with its SHA-256 digest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if manufacturer == "" {
				return fmt.Errorf("--manufacturer is required")
			}
			return runManualPush(cmd, args[0], manufacturer, model, contentType)
		},
	}

	cmd.Flags().StringVarP(&manufacturer, "manufacturer", "m", "", "Equipment manufacturer")
	cmd.Flags().StringVar(&model, "model", "", "Equipment model")
	cmd.Flags().StringVar(&contentType, "content-type", "application/pdf", "MIME type of the manual")

	return cmd
}

func runManualPush(cmd *cobra.Command, path, manufacturer, model, contentType string) error {
	digest, err := fileSHA256(path)
	if err != nil {
		return err
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/manuals", registerManualRequest{
		Manufacturer: manufacturer,
		Model:        model,
		Filename:     filepath.Base(path),
		ContentType:  contentType,
		SHA256:       digest,
	})
	if err != nil {
		return fmt.Errorf("failed to register manual: %w", err)
	}

	var registered registerManualResponse
	if err := json.Unmarshal(resp.Data, &registered); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	err = api.UploadFile(registered.UploadURL, path, contentType, func(current, total int64) {
		fmt.Printf("\ruploading... %d%%", current*100/total)
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if _, err := api.Post("/manuals/"+registered.Manual.ID+"/confirm", map[string]string{"sha256": digest}); err != nil {
		return fmt.Errorf("failed to confirm upload: %w", err)
	}

	fmt.Printf("Manual %s uploaded\n", registered.Manual.ID)
	return nil
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func manualListCmd() *cobra.Command {
	var manufacturer string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ready manuals for a manufacturer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if manufacturer == "" {
				return fmt.Errorf("--manufacturer is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/manuals/?manufacturer=" + manufacturer)
			if err != nil {
				return fmt.Errorf("failed to list manuals: %w", err)
			}

			var manuals []Manual
			if err := json.Unmarshal(resp.Data, &manuals); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if len(manuals) == 0 {
				fmt.Println("No manuals")
				return nil
			}
			for _, m := range manuals {
				fmt.Printf("%s  %s  %s\n", m.ID, m.CreatedAt, m.Filename)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manufacturer, "manufacturer", "m", "", "Equipment manufacturer")

	return cmd
}

func manualURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <id>",
		Short: "Get a presigned download URL for a manual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/manuals/" + args[0] + "/download")
			if err != nil {
				return fmt.Errorf("failed to get download URL: %w", err)
			}

			var result struct {
				DownloadURL string `json:"download_url"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Println(result.DownloadURL)
			return nil
		},
	}
}
