// Package balancer decides block size, picks a distinct storage for every
// replica of a block, assigns a cipher when encryption is requested, and
// mints the random object name under which a replica is stored. It holds no
// state across files: every call operates only on the storages and ciphers
// registered at construction.
package balancer

import (
	"container/heap"
	"context"
	"encoding/hex"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/marmos91/cloudraid/pkg/cipher"
	"github.com/marmos91/cloudraid/pkg/storage"
)

// Bounds configures the automatic block-size policy: the [min, max] range
// a file size is mapped into when no explicit block size is requested.
type Bounds struct {
	MinBlockSize int64
	MaxBlockSize int64
}

// Balancer assigns storages, ciphers, and names to block replicas.
type Balancer struct {
	bounds  Bounds
	ciphers []cipher.Cipher

	mu   sync.Mutex
	heap storageHeap
}

// New builds a Balancer over storages (at least one is required to place
// any block; an empty slice is accepted and every AssignStorages call will
// fail with ErrNoStorage) and ciphers (may be empty if encryption is never
// requested).
func New(storages []storage.Storage, ciphers []cipher.Cipher, bounds Bounds) *Balancer {
	b := &Balancer{
		bounds:  bounds,
		ciphers: append([]cipher.Cipher(nil), ciphers...),
	}
	for _, s := range storages {
		b.heap = append(b.heap, &entry{storage: s, index: len(b.heap)})
	}
	heap.Init(&b.heap)
	return b
}

// PlanBlockSize picks the block size for a file: an explicit request is
// honored outright; otherwise the size is chosen from the file size S and
// the configured [min, max] bounds.
func (b *Balancer) PlanBlockSize(fileSize int64, requested int64) int64 {
	if requested > 0 {
		return requested
	}

	minBS, maxBS := b.bounds.MinBlockSize, b.bounds.MaxBlockSize
	switch {
	case fileSize < minBS:
		return minBS
	case fileSize < (minBS+maxBS)/2:
		return fileSize
	case fileSize < maxBS:
		return (fileSize + 1) / 2 // ceil(S/2)
	default:
		return maxBS
	}
}

// TotalBlocks returns ceil(fileSize / blockSize), with the empty-file
// boundary resolved to 1 (one zero-length block) per DESIGN.md's Open
// Question decision.
func TotalBlocks(fileSize, blockSize int64) int {
	if fileSize == 0 {
		return 1
	}
	return int((fileSize + blockSize - 1) / blockSize)
}

// AssignStorages returns count distinct storages for the replicas of one
// block: it pops count entries off the load-ordered heap, remembers them,
// and pushes them all back unmodified — no re-scoring between assignments
// within the same block. Returns ErrNoStorage if fewer than count storages
// are registered.
func (b *Balancer) AssignStorages(count int) ([]storage.Storage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if count > b.heap.Len() {
		return nil, ErrNoStorage
	}

	popped := make([]*entry, 0, count)
	result := make([]storage.Storage, 0, count)
	for i := 0; i < count; i++ {
		e := heap.Pop(&b.heap).(*entry)
		popped = append(popped, e)
		result = append(result, e.storage)
	}
	for _, e := range popped {
		heap.Push(&b.heap, e)
	}
	return result, nil
}

// AssignCipher picks a cipher uniformly at random among the registered
// ciphers — the same key may be reused across blocks. Returns ErrNoCipher
// if none are registered.
func (b *Balancer) AssignCipher() (cipher.Cipher, error) {
	if len(b.ciphers) == 0 {
		return nil, ErrNoCipher
	}
	if len(b.ciphers) == 1 {
		return b.ciphers[0], nil
	}
	return b.ciphers[rand.IntN(len(b.ciphers))], nil
}

// NewName mints a fresh universally-unique object name for one block
// replica: a 128-bit random value, rendered as hex.
func NewName() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// RefreshCapacities polls Size on every registered storage and updates the
// cached used/total pair the heap orders by. Load values are allowed to go
// stale between calls; callers decide how often to refresh.
func (b *Balancer) RefreshCapacities(ctx context.Context) error {
	b.mu.Lock()
	entries := make([]*entry, len(b.heap))
	copy(entries, b.heap)
	b.mu.Unlock()

	for _, e := range entries {
		used, total, err := e.storage.Size(ctx)
		if err != nil {
			return err
		}
		b.mu.Lock()
		e.used, e.total = used, total
		heap.Fix(&b.heap, e.index)
		b.mu.Unlock()
	}
	return nil
}
