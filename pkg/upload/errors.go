package upload

import "errors"

// ErrUploadFailed is returned by Engine.Upload when at least one block
// replica remained failed after both retry passes. The catalog state is
// still consistent: every block that did succeed was committed, so
// re-running the same upload resumes from where it stopped.
var ErrUploadFailed = errors.New("upload: one or more block replicas failed permanently")

// ErrUnknownCipherKey is returned when the balancer assigns a cipher whose
// key material has no matching row in the catalog — every cipher used for
// encryption must be backed by a catalog.Key registered ahead of time
// (e.g. via a "key add"/"key generate" CLI command), so a block's KeyID can
// always be resolved back to it on download.
var ErrUnknownCipherKey = errors.New("upload: cipher key material is not registered in the catalog")
