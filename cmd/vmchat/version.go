package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vmchat"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vmchat",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vmchat version %s\n", strings.TrimSpace(vmchat.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
