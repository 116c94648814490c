package distrib

import "sync"

// World identifies one rank inside a process group and provides the
// group's synchronization point. The enhancement pipeline consumes a
// World; it never sets one up from ambient global state, so tests can
// run simulated multi-rank groups deterministically.
type World interface {
	// Rank returns this member's rank, in [0, WorldSize)
	Rank() int

	// WorldSize returns the number of ranks in the group
	WorldSize() int

	// Barrier blocks until every rank in the group has reached it
	Barrier()
}

// Single is the one-rank world: rank 0 of 1, no-op barrier
type Single struct{}

// Rank returns 0
func (Single) Rank() int { return 0 }

// WorldSize returns 1
func (Single) WorldSize() int { return 1 }

// Barrier is a no-op for a single rank
func (Single) Barrier() {}

// group is a reusable in-process barrier shared by all members
type group struct {
	mu         sync.Mutex
	cond       *sync.Cond
	size       int
	arrived    int
	generation int
}

func (g *group) await() {
	g.mu.Lock()
	defer g.mu.Unlock()

	gen := g.generation
	g.arrived++
	if g.arrived == g.size {
		// Last rank in: release everyone and reset for the next round
		g.arrived = 0
		g.generation++
		g.cond.Broadcast()
		return
	}
	for gen == g.generation {
		g.cond.Wait()
	}
}

// member is one rank of an in-process group
type member struct {
	group *group
	rank  int
}

// Rank returns this member's rank
func (m *member) Rank() int { return m.rank }

// WorldSize returns the group size
func (m *member) WorldSize() int { return m.group.size }

// Barrier blocks until all ranks of the group arrive
func (m *member) Barrier() { m.group.await() }

// NewGroup creates an in-process group of size ranks, one World per
// rank, sharing a single reusable barrier. Each rank is expected to
// run on its own goroutine; a rank that never reaches a barrier blocks
// the others indefinitely.
func NewGroup(size int) []World {
	g := &group{size: size}
	g.cond = sync.NewCond(&g.mu)

	worlds := make([]World, size)
	for rank := range worlds {
		worlds[rank] = &member{group: g, rank: rank}
	}
	return worlds
}
