package main

import (
	"fmt"
	"os"

	"github.com/aretw0/vmchat/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmchat",
	Short: "vmchat manages virtual machines through plain-language chat",
	Long: `vmchat interprets chat messages with a language model, calls the
virtual-machine management API and narrates the result back.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable verbose debug logging")
}

// loadStack reads the configuration and wires the application. Quiet
// silences logging for surfaces that own the terminal.
func loadStack(cmd *cobra.Command, quiet bool) (*cli.Stack, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := cli.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Lookup("addr") != nil && cmd.Flags().Changed("addr") {
		cfg.ListenAddr, _ = cmd.Flags().GetString("addr")
	}

	return cli.NewStack(cfg, cli.Options{
		ConfigPath: path,
		Debug:      debug,
		Quiet:      quiet,
	})
}
