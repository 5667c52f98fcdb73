package storagecmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
)

var addCmd = &cobra.Command{
	Use:   "add <type> <token>",
	Short: "Register a storage backend",
	Long: `Insert a Storage row for the given adapter type and catalog token.

This only registers the row the balancer and catalog refer to by id — the
adapter's actual credentials (e.g. a Yandex.Disk OAuth token) must also be
added under the config file's "storages:" section, keyed by the same token.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	storageType, token := args[0], args[1]

	cat, _, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	row, err := cat.AddStorage(context.Background(), token, storageType)
	if err != nil {
		return err
	}
	cmd.Printf("Registered storage %d (%s, token %q)\n", row.ID, row.Type, row.Token)
	return nil
}
