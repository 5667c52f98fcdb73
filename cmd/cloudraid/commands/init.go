package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
	"github.com/marmos91/cloudraid/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Create a default configuration file at the given --config path, or at
$XDG_CONFIG_HOME/cloudraid/config.yaml if not set.

The generated file has a sqlite catalog and no storages or keys configured —
add storage credentials under "storages:" and register keys with
"cloudraid key add" before uploading.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cmdutil.ConfigFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if !initForce && config.DefaultConfigExistsAt(path) {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	cmd.Printf("Configuration file created at: %s\n", path)
	cmd.Println("Next steps:")
	cmd.Println("  1. Add storage credentials under the \"storages:\" section")
	cmd.Println("  2. Register an encryption key with: cloudraid key generate")
	cmd.Println("  3. Upload a file with: cloudraid upload <path>")
	return nil
}
