package storagecmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id> <name>...",
	Short: "Delete named objects from a storage",
	Long: `Delete one or more objects directly from a storage by their remote
name. This does not touch the catalog's block rows — use the top-level
"delete" command to remove a file and its blocks together.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cat, row, adapter, err := resolveStorage(ctx, args[0])
	if err != nil {
		return err
	}
	defer cat.Close()
	names := args[1:]

	if err := cmdutil.Confirm(fmt.Sprintf("Delete %d object(s) from storage %d (%s)?", len(names), row.ID, row.Token)); err != nil {
		return err
	}

	for _, name := range names {
		if _, err := adapter.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete %q: %w", name, err)
		}
		cmd.Printf("Deleted %q\n", name)
	}
	return nil
}
