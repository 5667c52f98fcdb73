package balancer

import "errors"

// ErrNoStorage is returned by AssignStorages when fewer storages are
// registered than replicas requested: a block must never place two
// replicas on the same storage, so a short heap is a hard failure rather
// than a silent duplicate placement.
var ErrNoStorage = errors.New("balancer: not enough storages for requested replica count")

// ErrNoCipher is returned by AssignCipher when encryption was requested but
// no cipher has been registered.
var ErrNoCipher = errors.New("balancer: encryption requested but no cipher is registered")
