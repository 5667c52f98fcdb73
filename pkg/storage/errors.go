package storage

import "errors"

// ErrObjectExists is returned by Upload when the backend already has an
// object under that name (Yandex.Disk reports this as FILE_EXISTS).
var ErrObjectExists = errors.New("storage: object already exists")

// ErrObjectNotFound is returned by Download/Delete when name is absent.
var ErrObjectNotFound = errors.New("storage: object not found")

// ErrStorageClosed is returned by any call made after Close.
var ErrStorageClosed = errors.New("storage: closed")
