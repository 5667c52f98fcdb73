package storagecmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
	"github.com/marmos91/cloudraid/internal/logger"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe <id>",
	Short: "Delete every object on a storage",
	Long: `Delete every object currently on a storage. This does not touch any
catalog rows — files that had replicas on this storage will report
BLOCK_DOWNLOAD_FAILED on their next download unless they have surviving
replicas elsewhere.`,
	Args: cobra.ExactArgs(1),
	RunE: runWipe,
}

func runWipe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cat, row, adapter, err := resolveStorage(ctx, args[0])
	if err != nil {
		return err
	}
	defer cat.Close()

	names, err := adapter.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		cmd.Println("Storage already empty.")
		return nil
	}

	if err := cmdutil.Confirm(fmt.Sprintf("Wipe %d object(s) from storage %d (%s)?", len(names), row.ID, row.Token)); err != nil {
		return err
	}

	var failed int
	for _, name := range names {
		if _, err := adapter.Delete(ctx, name); err != nil {
			logger.Warn("wipe: failed to delete object, continuing", logger.BlockName(name), logger.Err(err))
			failed++
		}
	}

	cmd.Printf("Wiped storage %d: %d deleted, %d failed\n", row.ID, len(names)-failed, failed)
	return nil
}
