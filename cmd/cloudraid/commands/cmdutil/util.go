// Package cmdutil wires a loaded Config into the live catalog, storages, and
// ciphers every cloudraid subcommand needs, and holds the small set of
// helpers shared across the command tree — one place that turns config into
// live objects, so every command builds them the same way.
package cmdutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/cloudraid/internal/cli/prompt"
	"github.com/marmos91/cloudraid/internal/logger"
	"github.com/marmos91/cloudraid/pkg/catalog"
	"github.com/marmos91/cloudraid/pkg/cipher"
	"github.com/marmos91/cloudraid/pkg/cipher/aesgcm"
	"github.com/marmos91/cloudraid/pkg/config"
	"github.com/marmos91/cloudraid/pkg/storage"
	"github.com/marmos91/cloudraid/pkg/storage/yandexdisk"
)

// ErrCancelled is returned when the user declines a destructive command's
// confirmation prompt. It is a CLI-only concern — the core engines never
// prompt — so it lives here, not in any core package's errors.go.
var ErrCancelled = errors.New("cancelled")

// ConfigFile is bound to the root command's persistent --config flag.
var ConfigFile string

// Force is bound to the root command's persistent --force flag, skipping
// confirmation prompts on destructive commands.
var Force bool

// LoadConfig loads the active configuration, preferring --config when set,
// and initializes the structured logger from its logging section.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.MustLoad(ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// OpenCatalog loads the configuration and opens its catalog.
func OpenCatalog() (*catalog.Catalog, *config.Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.New(cfg.Catalog.ToCatalogConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog: %w", err)
	}
	return cat, cfg, nil
}

// BuildStorages instantiates a live storage.Storage adapter for every entry
// in cfg.Storages. Every catalog storage token must have a matching entry
// here — the catalog persists the token and type but never the adapter
// credentials, so those live only in config.
func BuildStorages(cfg *config.Config) ([]storage.Storage, error) {
	storages := make([]storage.Storage, 0, len(cfg.Storages))
	for _, sc := range cfg.Storages {
		switch sc.Type {
		case "yandex-disk":
			storages = append(storages, yandexdisk.New(yandexdisk.Config{
				Token:      sc.Token,
				OAuthToken: sc.OAuthToken,
			}))
		default:
			return nil, fmt.Errorf("storage %q: unknown adapter type %q", sc.Token, sc.Type)
		}
	}
	return storages, nil
}

// BuildCiphers wraps every catalog-registered key in an aesgcm cipher. Key
// material lives entirely in the catalog (pkg/catalog.Key.Key is the
// passphrase itself), so building the live cipher set never touches config.
func BuildCiphers(ctx context.Context, cat *catalog.Catalog) ([]cipher.Cipher, error) {
	keys, err := cat.GetKeys(ctx)
	if err != nil {
		return nil, err
	}
	ciphers := make([]cipher.Cipher, 0, len(keys))
	for _, k := range keys {
		ciphers = append(ciphers, aesgcm.New(k.Key))
	}
	return ciphers, nil
}

// StorageIndexByID maps every registered catalog Storage.ID to its live
// adapter, the same index pkg/download builds internally — exposed here so
// CLI commands that work on catalog blocks directly (delete, upload) can
// reuse it instead of calling the download engine.
func StorageIndexByID(ctx context.Context, cat *catalog.Catalog, storages []storage.Storage) (map[uint]storage.Storage, error) {
	rows, err := cat.GetStorages(ctx)
	if err != nil {
		return nil, err
	}
	byToken := make(map[string]storage.Storage, len(storages))
	for _, s := range storages {
		byToken[s.Token()] = s
	}
	byID := make(map[uint]storage.Storage, len(rows))
	for _, row := range rows {
		if s, ok := byToken[row.Token]; ok {
			byID[row.ID] = s
		}
	}
	return byID, nil
}

// StorageByToken finds the live adapter for a catalog storage token.
func StorageByToken(storages []storage.Storage, token string) (storage.Storage, error) {
	for _, s := range storages {
		if s.Token() == token {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no configured adapter for storage token %q", token)
}

// Confirm asks for confirmation of a destructive action unless --force was
// given, returning ErrCancelled if the user declines.
func Confirm(label string) error {
	ok, err := prompt.ConfirmWithForce(label, Force)
	if err != nil {
		if prompt.IsAborted(err) {
			return ErrCancelled
		}
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}
