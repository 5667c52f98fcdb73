package storagecmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/internal/cli/output"
)

var filesCmd = &cobra.Command{
	Use:   "files <id>",
	Short: "List every object on a storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cat, _, adapter, err := resolveStorage(ctx, args[0])
	if err != nil {
		return err
	}
	defer cat.Close()

	names, err := adapter.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		cmd.Println("No objects.")
		return nil
	}

	rows := output.NewRows("NAME")
	for _, name := range names {
		rows.Add(name)
	}
	return output.PrintTable(os.Stdout, rows)
}
