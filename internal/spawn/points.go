package spawn

// pointAllocator hands out exclusive spawn points. A point, once
// allocated, is held until released; the host is the only caller.
type pointAllocator struct {
	count int
	held  map[int]bool
}

func newPointAllocator(count int) *pointAllocator {
	return &pointAllocator{
		count: count,
		held:  make(map[int]bool),
	}
}

// allocate returns the lowest free point id, or false when exhausted
func (p *pointAllocator) allocate() (int, bool) {
	for id := 0; id < p.count; id++ {
		if !p.held[id] {
			p.held[id] = true
			return id, true
		}
	}
	return 0, false
}

// release frees a point. Releasing an unheld point is a no-op.
func (p *pointAllocator) release(id int) {
	delete(p.held, id)
}
