package catalog

import "errors"

// ErrFileAlreadyExists is returned by AddFile when filename is already
// recorded and either complete (uploaded_blocks == total_blocks) or
// recorded under a different checksum.
var ErrFileAlreadyExists = errors.New("catalog: file already exists")

// ErrKeyAlreadyExists is returned by AddKey when the key material is already
// registered.
var ErrKeyAlreadyExists = errors.New("catalog: key already exists")

// ErrUnknownFile is returned when a filename or file ID has no catalog row.
var ErrUnknownFile = errors.New("catalog: unknown file")

// ErrUnknownStorage is returned when a storage token or ID has no catalog row.
var ErrUnknownStorage = errors.New("catalog: unknown storage")

// ErrStorageAlreadyExists is returned by AddStorage when token is already
// registered.
var ErrStorageAlreadyExists = errors.New("catalog: storage already exists")

// ErrUnknownKey is returned when a key ID or key material has no catalog row.
var ErrUnknownKey = errors.New("catalog: unknown key")

// ErrCatalogCorrupt is returned when the catalog's block bookkeeping
// disagrees with a file's declared layout (e.g. more uploaded_blocks than
// total_blocks, or a block group with no rows for a number under
// total_blocks) in a way that would make download produce wrong output.
var ErrCatalogCorrupt = errors.New("catalog: inconsistent block layout")
