// Package storage defines the capability contract every cloud backend must
// satisfy to take part in block replication: one interface a concrete
// backend adapter implements, consumed by the balancer and the upload and
// download engines without any backend-specific code.
package storage

import (
	"context"
	"io"

	"github.com/marmos91/cloudraid/pkg/model"
)

// Storage is one cloud backend a block replica can be placed on. A backend
// is heap-ordered by load (UsedBytes/TotalBytes) so the balancer can always
// pick the least-full N storages for a new block.
type Storage interface {
	// Token uniquely identifies this storage in the catalog.
	Token() string

	// Type reports the adapter tag (model.StorageType).
	Type() model.StorageType

	// Upload writes name with the full contents of data in one call.
	Upload(ctx context.Context, name string, data []byte) (model.UploadStatus, error)

	// UploadChunked writes name by streaming r in fixed-size chunks, for
	// backends whose API requires or benefits from chunked transfer.
	UploadChunked(ctx context.Context, name string, r io.Reader, size int64, chunkSize int) (model.UploadStatus, error)

	// Download returns the full contents of name.
	Download(ctx context.Context, name string) ([]byte, model.DownloadStatus, error)

	// DownloadChunked streams name's contents into w in fixed-size chunks
	// and returns the number of bytes written.
	DownloadChunked(ctx context.Context, name string, w io.Writer, chunkSize int) (int64, model.DownloadStatus, error)

	// Delete removes name.
	Delete(ctx context.Context, name string) (model.DeleteStatus, error)

	// List returns every object name currently stored on this backend.
	List(ctx context.Context) ([]string, error)

	// Size returns the backend's used and total capacity, in bytes.
	Size(ctx context.Context) (used, total int64, err error)
}

// LoadRatio returns s's used/total ratio for heap ordering, treating a
// zero-capacity (unreported) storage as fully loaded so it sinks to the
// bottom of the heap rather than being picked first on a division by zero.
func LoadRatio(used, total int64) float64 {
	if total <= 0 {
		return 1
	}
	return float64(used) / float64(total)
}
