package main

import (
	"os"

	"github.com/aretw0/vmchat/internal/cli"
	"github.com/aretw0/vmchat/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat in the terminal",
	Long: `Starts an interactive chat session. Type 'exit' or 'quit' to leave.
The transcript is stored under the session id so it can be resumed later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		headless, _ := cmd.Flags().GetBool("headless")

		stack, err := loadStack(cmd, !headless)
		if err != nil {
			return err
		}
		defer stack.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.RunChat(ctx, stack, cli.ChatOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			Headless:  headless,
			Markdown:  tui.IsTerminal(os.Stdout),
		}, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session id to create or resume")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored transcript before starting")
	chatCmd.Flags().Bool("headless", false, "Plain line-oriented I/O without banner or prompts")
}
