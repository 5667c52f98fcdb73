// Package key implements cloudraid's "key" command group: registering and
// listing the symmetric passphrases available to encrypt uploaded blocks.
package key

import "github.com/spf13/cobra"

// Cmd is the parent command for key management.
var Cmd = &cobra.Command{
	Use:   "key",
	Short: "Manage encryption keys",
	Long: `Manage the symmetric passphrases cloudraid can encrypt blocks with.

A key's material is its identity: cloudraid never stores a separate label,
only the passphrase itself, matched back to a block's KeyID at download time.

Examples:
  cloudraid key add "correct horse battery staple"
  cloudraid key generate
  cloudraid key list`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(generateCmd)
	Cmd.AddCommand(listCmd)
}
