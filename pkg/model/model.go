// Package model holds the domain value types shared across cloudraid's
// storage, cipher, catalog, balancer, upload, and download packages. Keeping
// these types dependency-free avoids import cycles between the catalog
// (which persists them) and the engines (which produce and consume them).
package model

// StorageType identifies the wire protocol a Storage uses. "yandex-disk" is
// the reference adapter; additional adapters register their own tag.
type StorageType string

const (
	StorageTypeYandexDisk StorageType = "yandex-disk"
	StorageTypeMemory     StorageType = "memory" // in-test fake; only test catalogs record it
)

// UploadStatus is the outcome of a single block upload attempt.
type UploadStatus int

const (
	UploadOK UploadStatus = iota
	UploadFailed
	UploadRetry
)

// DownloadStatus is the outcome of a single block download attempt.
type DownloadStatus int

const (
	DownloadOK DownloadStatus = iota
	DownloadFailed
	DownloadNotFound
)

// DeleteStatus is the outcome of a single block deletion attempt.
type DeleteStatus int

const (
	DeleteOK DeleteStatus = iota
	DeleteFailed
	DeleteNotFound
)

// KeyRef names a Key row in the catalog without requiring an import of
// pkg/catalog. Cipher.Encrypt returns only ciphertext, so no cipher reports
// one.
type KeyRef struct {
	ID  uint
	Key string
}

// BlockPlacement is where one physical replica of a logical block lives:
// which storage holds it, and what its remote object name is.
type BlockPlacement struct {
	Number          int // logical block index within the file, 0-based
	DuplicateNumber int // replica index within Number, 0-based
	Name            string
	Size            int64
	StorageToken    string
}
