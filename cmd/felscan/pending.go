package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Manage pending downloads awaiting approval",
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending downloads",
	RunE:  runPendingList,
}

var pendingApproveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a pending download and dispatch it to qBittorrent",
	Args:  cobra.ExactArgs(1),
	RunE:  runPendingApprove,
}

var pendingDeclineCmd = &cobra.Command{
	Use:   "decline <request-id>",
	Short: "Decline a pending download",
	Args:  cobra.ExactArgs(1),
	RunE:  runPendingDecline,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.AddCommand(pendingListCmd, pendingApproveCmd, pendingDeclineCmd)
}

func runPendingList(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	resp, err := client.ListPending()
	if err != nil {
		return fmt.Errorf("list pending failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if len(resp.Items) == 0 {
		fmt.Println("No pending downloads.")
		return nil
	}

	for _, p := range resp.Items {
		fmt.Printf("%s  %s (%d)  %s  %s  expires %s\n",
			p.RequestID, p.MovieTitle, p.Year, p.QualityType, p.Status,
			p.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runPendingApprove(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	resp, err := client.ApprovePending(args[0])
	if err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}
	if jsonOutput {
		printJSON(resp)
		return nil
	}
	fmt.Printf("status: %s\n", resp.Status)
	return nil
}

func runPendingDecline(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	resp, err := client.DeclinePending(args[0])
	if err != nil {
		return fmt.Errorf("decline failed: %w", err)
	}
	if jsonOutput {
		printJSON(resp)
		return nil
	}
	fmt.Printf("status: %s\n", resp.Status)
	return nil
}
