package balancer

import (
	"container/heap"

	"github.com/marmos91/cloudraid/pkg/storage"
)

// entry pairs a registered storage with its last-polled capacity. The
// balancer orders entries by storage.LoadRatio(used, total); capacities are
// refreshed only by RefreshCapacities, so values may go stale between polls.
type entry struct {
	storage storage.Storage
	used    int64
	total   int64
	index   int // maintained by container/heap
}

// storageHeap is a min-heap of entries ordered by load ratio, supporting the
// balancer's pop-N/reinsert-N-without-re-scoring placement policy.
type storageHeap []*entry

func (h storageHeap) Len() int { return len(h) }

func (h storageHeap) Less(i, j int) bool {
	return storage.LoadRatio(h[i].used, h[i].total) < storage.LoadRatio(h[j].used, h[j].total)
}

func (h storageHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *storageHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *storageHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

var _ heap.Interface = (*storageHeap)(nil)
