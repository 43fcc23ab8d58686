package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored chat sessions",
	Long:  `List, inspect, and remove the transcripts kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd, true)
		if err != nil {
			return err
		}
		defer stack.Close()

		sessions, err := stack.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No stored sessions found.")
			return nil
		}
		fmt.Fprintln(out, "Stored Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the transcript of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd, true)
		if err != nil {
			return err
		}
		defer stack.Close()

		history, err := stack.Sessions.History(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(history, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := loadStack(cmd, true)
		if err != nil {
			return err
		}
		defer stack.Close()

		out := cmd.OutOrStdout()
		var failed int
		for _, sessionID := range args {
			if err := stack.Sessions.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", sessionID, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		if failed > 0 {
			return fmt.Errorf("%d session(s) could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
