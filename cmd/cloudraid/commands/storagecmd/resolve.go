package storagecmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/marmos91/cloudraid/cmd/cloudraid/commands/cmdutil"
	"github.com/marmos91/cloudraid/pkg/catalog"
	"github.com/marmos91/cloudraid/pkg/storage"
)

// resolveStorage opens the catalog and configured adapters, then resolves
// idArg (a catalog Storage.ID) to its catalog row and live adapter.
func resolveStorage(ctx context.Context, idArg string) (*catalog.Catalog, *catalog.Storage, storage.Storage, error) {
	id, err := strconv.ParseUint(idArg, 10, 64)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid storage id %q: %w", idArg, err)
	}

	cat, cfg, err := cmdutil.OpenCatalog()
	if err != nil {
		return nil, nil, nil, err
	}

	rows, err := cat.GetStorages(ctx)
	if err != nil {
		cat.Close()
		return nil, nil, nil, err
	}
	var row *catalog.Storage
	for i := range rows {
		if uint64(rows[i].ID) == id {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		cat.Close()
		return nil, nil, nil, fmt.Errorf("%w: storage id %d", catalog.ErrUnknownStorage, id)
	}

	storages, err := cmdutil.BuildStorages(cfg)
	if err != nil {
		cat.Close()
		return nil, nil, nil, err
	}
	adapter, err := cmdutil.StorageByToken(storages, row.Token)
	if err != nil {
		cat.Close()
		return nil, nil, nil, err
	}
	return cat, row, adapter, nil
}
