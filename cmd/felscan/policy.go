package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show or update the running upgrade policy",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current upgrade policy",
	RunE:  runPolicyShow,
}

var policySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update one or more upgrade policy flags",
	Long: `Update the running upgrade policy. Unset flags keep their
current server-side value, except boolean flags explicitly passed.

Example:
  felscan policy set --notify-resolution --notify-expire-hours 48`,
	RunE: runPolicySet,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd, policySetCmd)

	policySetCmd.Flags().Bool("notify-fel", false, "enable notify_fel")
	policySetCmd.Flags().Bool("notify-dv", false, "enable notify_dv")
	policySetCmd.Flags().Bool("notify-atmos", false, "enable notify_atmos")
	policySetCmd.Flags().Bool("notify-resolution", false, "enable notify_resolution")
	policySetCmd.Flags().Bool("notify-only-library-movies", false, "only notify for movies already in the library")
	policySetCmd.Flags().Int("notify-expire-hours", 0, "hours before a pending approval expires (0 keeps current value)")
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	p, err := client.Policy()
	if err != nil {
		return fmt.Errorf("get policy failed: %w", err)
	}
	printJSON(p)
	return nil
}

func runPolicySet(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	current, err := client.Policy()
	if err != nil {
		return fmt.Errorf("get policy failed: %w", err)
	}

	if v, _ := cmd.Flags().GetBool("notify-fel"); cmd.Flags().Changed("notify-fel") {
		current.NotifyFEL = v
	}
	if v, _ := cmd.Flags().GetBool("notify-dv"); cmd.Flags().Changed("notify-dv") {
		current.NotifyDV = v
	}
	if v, _ := cmd.Flags().GetBool("notify-atmos"); cmd.Flags().Changed("notify-atmos") {
		current.NotifyAtmos = v
	}
	if v, _ := cmd.Flags().GetBool("notify-resolution"); cmd.Flags().Changed("notify-resolution") {
		current.NotifyResolution = v
	}
	if v, _ := cmd.Flags().GetBool("notify-only-library-movies"); cmd.Flags().Changed("notify-only-library-movies") {
		current.NotifyOnlyLibraryMovies = v
	}
	if v, _ := cmd.Flags().GetInt("notify-expire-hours"); v > 0 {
		current.NotifyExpireHours = v
	}

	updated, err := client.SetPolicy(*current)
	if err != nil {
		return fmt.Errorf("set policy failed: %w", err)
	}
	printJSON(updated)
	return nil
}
