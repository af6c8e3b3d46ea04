package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Trigger an out-of-cycle library scan",
	RunE:  runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	if err := client.TriggerScan(); err != nil {
		return fmt.Errorf("trigger scan failed: %w", err)
	}
	if !jsonOutput {
		fmt.Println("scan started")
	}
	return nil
}
