package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the scheduler's current mode and next scan time",
	RunE:  runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	fmt.Printf("Mode:        %s\n", status.Mode)
	fmt.Printf("Scanning:    %v\n", status.IsScanning)
	fmt.Printf("Next scan:   %s\n", status.NextScanAt.Format("2006-01-02 15:04:05"))
	return nil
}
