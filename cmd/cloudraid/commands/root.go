// Package commands implements cloudraid's CLI command tree.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/key"
	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/storagecmd"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cloudraid",
	Short: "Replicate files across cloud storage backends like a RAID array",
	Long: `cloudraid splits a file into blocks, replicates each block across
independent cloud storage backends, and reconstructs it on demand by falling
back across surviving replicas. A catalog (SQLite or PostgreSQL) tracks every
block's placement so an interrupted upload resumes and a download survives
any single replica going missing.

Use "cloudraid [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdutil.ConfigFile, "config", "", "config file (default: $XDG_CONFIG_HOME/cloudraid/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&cmdutil.Force, "force", "f", false, "skip confirmation prompts on destructive commands")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(storagecmd.Cmd)
	rootCmd.AddCommand(key.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
