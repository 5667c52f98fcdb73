package download

import "errors"

// ErrBlockDownloadFailed is returned when every replica of some block
// number failed: the whole download fails fast and returns it, and no
// partial assembly is written to the destination.
var ErrBlockDownloadFailed = errors.New("download: every replica of a block failed")

// ErrChecksumMismatch is returned when the reassembled file's SHA-1 digest
// doesn't match the catalog's stored checksum. The partially-written file
// is left on disk for inspection.
var ErrChecksumMismatch = errors.New("download: checksum mismatch")

// ErrUnresolvedKey is returned when a Block's KeyID has no registered
// cipher whose Key() matches the catalog's key material — the file can't
// be decrypted with the ciphers the caller supplied.
var ErrUnresolvedKey = errors.New("download: no registered cipher matches this block's key")
