package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

func InitCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the mechanic client",
		Long:  "Probes the server and saves the API URL to the global client config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", defaultAPIURL, "API base URL")

	return cmd
}

func runInit(apiURL string) error {
	api := NewAPIClientWithConfig(apiURL)
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", apiURL, err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIURL: apiURL}); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	fmt.Printf("Configured %s (saved to %s)\n", apiURL, configPath)
	return nil
}
