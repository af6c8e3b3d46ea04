package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Reconcile curated collections, removing stale members",
	RunE:  runVerifyCmd,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerifyCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	result, err := client.TriggerVerify()
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	for _, c := range result.Collections {
		fmt.Printf("%-20s added=%d removed=%d failed=%d\n", c.Collection, c.Added, c.Removed, c.Failed)
	}
	return nil
}
