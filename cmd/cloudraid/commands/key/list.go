package key

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
	Short: "List registered keys",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cat, _, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	keys, err := cat.GetKeys(context.Background())
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		cmd.Println("No keys.")
		return nil
	}

	rows := output.NewRows("ID", "MATERIAL")
	for _, k := range keys {
		rows.Add(fmt.Sprintf("%d", k.ID), maskMaterial(k.Key))
	}
	return output.PrintTable(os.Stdout, rows)
}

// maskMaterial shows only enough of a key's passphrase to tell rows apart,
// since it is printed to a terminal that may be screen-shared or logged.
func maskMaterial(material string) string {
	if len(material) <= 8 {
		return "****"
	}
	return material[:4] + "..." + material[len(material)-4:]
}
