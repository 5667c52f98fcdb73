package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
	"github.com/marmos91/cloudraid/internal/logger"
	"github.com/marmos91/cloudraid/pkg/catalog"
	"github.com/marmos91/cloudraid/pkg/storage"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <filename>...",
	Short: "Delete every block of one or more files, then their catalog rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cat, cfg, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	storages, err := cmdutil.BuildStorages(cfg)
	if err != nil {
		return err
	}
	storageByID, err := cmdutil.StorageIndexByID(ctx, cat, storages)
	if err != nil {
		return err
	}

	if err := cmdutil.Confirm(fmt.Sprintf("Delete %d file(s)?", len(args))); err != nil {
		return err
	}

	for _, filename := range args {
		if err := deleteOneFile(ctx, cat, storageByID, filename); err != nil {
			return fmt.Errorf("delete %q: %w", filename, err)
		}
		cmd.Printf("Deleted %q\n", filename)
	}
	return nil
}

func deleteOneFile(ctx context.Context, cat *catalog.Catalog, storageByID map[uint]storage.Storage, filename string) error {
	file, err := cat.GetFileByFilename(ctx, filename)
	if err != nil {
		return err
	}
	blocks, err := cat.GetBlocksByFile(ctx, file.ID)
	if err != nil {
		return err
	}

	for _, b := range blocks {
		stor, ok := storageByID[b.StorageID]
		if !ok {
			logger.Warn("delete: no configured adapter for block's storage, skipping remote delete",
				logger.BlockName(b.Name), logger.BlockNumber(b.Number))
			continue
		}
		if _, err := stor.Delete(ctx, b.Name); err != nil {
			logger.Warn("delete: failed to delete remote block, continuing", logger.BlockName(b.Name), logger.Err(err))
		}
	}

	_, err = cat.DeleteFile(ctx, filename)
	return err
}
