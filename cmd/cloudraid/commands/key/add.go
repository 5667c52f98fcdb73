package key

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
)

var addCmd = &cobra.Command{
	Use:   "add <material>",
	Short: "Register a key by its passphrase",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	cat, _, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	row, err := cat.AddKey(context.Background(), args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Registered key %d\n", row.ID)
	return nil
}
