// Package storagecmd implements cloudraid's "storage" command group:
// registering backends and managing the objects placed on them. Named
// storagecmd rather than storage to avoid colliding with pkg/storage's
// package name in files that import both.
package storagecmd

import "github.com/spf13/cobra"

// Cmd is the parent command for storage management.
var Cmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage registered storage backends",
	Long: `Manage the cloud storage backends cloudraid replicates blocks
across. A storage must be registered here AND given credentials under the
config file's "storages:" section before the balancer will place blocks on
it.

Examples:
  cloudraid storage add yandex-disk my-disk-token
  cloudraid storage list
  cloudraid storage files 1
  cloudraid storage delete 1 block-name-a block-name-b
  cloudraid storage wipe 1`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(filesCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(wipeCmd)
}
