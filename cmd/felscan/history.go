package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent download-coordinator decisions",
	RunE:  runHistoryCmd,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	resp, err := client.History()
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	for _, e := range resp.Items {
		fmt.Printf("%s  %s (%d)  %s  %s  %s\n",
			e.RecordedAt.Format("2006-01-02 15:04:05"), e.MovieTitle, e.Year, e.Outcome, e.Detail, e.RequestID)
	}
	return nil
}
