package key

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and register a random key",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	material, err := randomMaterial()
	if err != nil {
		return fmt.Errorf("generate key material: %w", err)
	}

	cat, _, err := cmdutil.OpenCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	row, err := cat.AddKey(context.Background(), material)
	if err != nil {
		return err
	}
	cmd.Printf("Registered key %d: %s\n", row.ID, material)
	cmd.Println("Save this passphrase — it is the only way to decrypt files encrypted with it.")
	return nil
}

func randomMaterial() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
