package storagecmd

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
	Short: "List registered storages and their live capacity",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cat, cfg, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	rows, err := cat.GetStorages(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		cmd.Println("No storages.")
		return nil
	}

	storages, err := cmdutil.BuildStorages(cfg)
	if err != nil {
		return err
	}

	out := output.NewRows("ID", "TOKEN", "TYPE", "USED", "TOTAL")
	for _, row := range rows {
		used, total := "-", "-"
		if adapter, err := cmdutil.StorageByToken(storages, row.Token); err == nil {
			if u, t, err := adapter.Size(ctx); err == nil {
				used, total = fmt.Sprintf("%d", u), fmt.Sprintf("%d", t)
			}
		}
		out.Add(fmt.Sprintf("%d", row.ID), row.Token, row.Type, used, total)
	}
	return output.PrintTable(os.Stdout, out)
}
