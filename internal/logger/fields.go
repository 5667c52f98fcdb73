package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the balancer, catalog,
// storage adapters, and upload/download engines. Use these consistently so
// log aggregation can group by filename, storage, or operation across
// packages.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyOperation = "operation" // upload, download, list, delete, ...
	KeyFilename  = "filename"
	KeySize      = "size"
	KeyChecksum  = "checksum"

	KeyStorageToken = "storage_token"
	KeyStorageType  = "storage_type"
	KeyBlockNumber  = "block_number"
	KeyDuplicateNum = "duplicate_number"
	KeyBlockName    = "block_name"

	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"

	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"
)

// TraceID returns a slog.Attr for a correlation ID assigned to one CLI invocation.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// Operation returns a slog.Attr for the high-level operation being performed.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Filename returns a slog.Attr for the file's catalog name.
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Size returns a slog.Attr for a byte count.
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// Checksum returns a slog.Attr for a hex-encoded SHA-1 digest.
func Checksum(sum string) slog.Attr {
	return slog.String(KeyChecksum, sum)
}

// StorageToken returns a slog.Attr for a storage's catalog token.
func StorageToken(token string) slog.Attr {
	return slog.String(KeyStorageToken, token)
}

// StorageType returns a slog.Attr for a storage adapter's type tag.
func StorageType(t string) slog.Attr {
	return slog.String(KeyStorageType, t)
}

// BlockNumber returns a slog.Attr for a block's sequence number within a file.
func BlockNumber(n int) slog.Attr {
	return slog.Int(KeyBlockNumber, n)
}

// DuplicateNumber returns a slog.Attr for a block replica's index.
func DuplicateNumber(n int) slog.Attr {
	return slog.Int(KeyDuplicateNum, n)
}

// BlockName returns a slog.Attr for a block's remote object name.
func BlockName(name string) slog.Attr {
	return slog.String(KeyBlockName, name)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the configured retry ceiling.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// DurationMs returns a slog.Attr for an operation's wall time in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error, or a zero Attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// BytesRead returns a slog.Attr for actual bytes read.
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written.
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}
