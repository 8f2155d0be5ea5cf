package cache

// A VictimFinder decides which block of a set should hold a newly fetched
// memory block.
type VictimFinder interface {
	FindVictim(set *Set) *Block
}

// LRUVictimFinder selects the least recently used block to evict. Invalid
// blocks are preferred so that no eviction happens while the set still has
// room; blocks only turn invalid at reset, so the first invalid block in LRU
// order is always the lowest-indexed one.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed LRU evictor.
func NewLRUVictimFinder() *LRUVictimFinder {
	return &LRUVictimFinder{}
}

// FindVictim returns the least recently used block in a set.
func (e *LRUVictimFinder) FindVictim(set *Set) *Block {
	for _, block := range set.LRUQueue {
		if !block.IsValid {
			return block
		}
	}

	return set.LRUQueue[0]
}
