package distrib

import (
	"fmt"

	"github.com/soniclab/denoise/internal/dataset"
)

// Batch is one loaded batch: the dataset index it came from, the
// decoded item, or the decode error that failed it. A failed batch
// does not corrupt the loader; iteration continues with the next index.
type Batch struct {
	Index int
	Item  *dataset.Item
	Err   error
}

// Loader partitions a dataset across the ranks of a world and streams
// this rank's share in deterministic index order, with up to numWorkers
// decodes in flight.
type Loader struct {
	ds         *dataset.Dataset
	indices    []int
	numWorkers int
}

// NewLoader builds the loader for one rank. Indices are assigned by
// stride (rank, rank+world, ...), so across all ranks every index is
// owned exactly once. Batched variable-length audio is not supported;
// batchSize must be 1.
func NewLoader(ds *dataset.Dataset, batchSize, rank, worldSize, numWorkers int) (*Loader, error) {
	if batchSize != 1 {
		return nil, fmt.Errorf("batch size %d not supported: variable-length audio cannot be batched without padding", batchSize)
	}
	if worldSize < 1 || rank < 0 || rank >= worldSize {
		return nil, fmt.Errorf("invalid rank %d for world size %d", rank, worldSize)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var indices []int
	for i := rank; i < ds.Len(); i += worldSize {
		indices = append(indices, i)
	}

	return &Loader{ds: ds, indices: indices, numWorkers: numWorkers}, nil
}

// Len returns the number of batches this rank will yield
func (l *Loader) Len() int {
	return len(l.indices)
}

// Indices returns this rank's partition in emission order
func (l *Loader) Indices() []int {
	out := make([]int, len(l.indices))
	copy(out, l.indices)
	return out
}

// Batches streams this rank's partition. Decodes run ahead on worker
// goroutines, but batches arrive on the channel in partition order.
// The channel is closed when the partition is exhausted; the caller
// must drain it.
func (l *Loader) Batches() <-chan Batch {
	out := make(chan Batch)
	// Each slot holds one in-flight decode; the buffered channel of
	// slots bounds parallelism while the collector preserves order
	slots := make(chan chan Batch, l.numWorkers)

	go func() {
		for _, idx := range l.indices {
			slot := make(chan Batch, 1)
			slots <- slot
			go func(idx int, slot chan<- Batch) {
				item, err := l.ds.Get(idx)
				slot <- Batch{Index: idx, Item: item, Err: err}
			}(idx, slot)
		}
		close(slots)
	}()

	go func() {
		for slot := range slots {
			out <- <-slot
		}
		close(out)
	}()

	return out
}
