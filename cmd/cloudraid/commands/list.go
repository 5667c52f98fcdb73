package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
	"github.com/marmos91/cloudraid/internal/cli/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every file recorded in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cat, _, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	files, err := cat.GetFiles(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		cmd.Println("No files.")
		return nil
	}

	rows := output.NewRows("FILENAME", "SIZE", "BLOCKS", "DUPLICATE_COUNT", "ENCRYPTED", "PROGRESS")
	for _, f := range files {
		progress := fmt.Sprintf("%d/%d", f.UploadedBlocks, f.TotalBlocks)
		rows.Add(f.Filename, fmt.Sprintf("%d", f.Size), fmt.Sprintf("%d", f.TotalBlocks),
			fmt.Sprintf("%d", f.DuplicateCount), yesNo(f.Encrypted), progress)
	}
	return output.PrintTable(os.Stdout, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
