package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vmchat/internal/cli"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>...",
	Short: "Send a single message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		stack, err := loadStack(cmd, true)
		if err != nil {
			return err
		}
		defer stack.Close()

		result, err := cli.RunAsk(cmd.Context(), stack, sessionID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(result.Reply))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("session", "s", "", "Store the exchange in this session")
}
