package cache

// A Block is the information associated with one cache line: validity, the
// tag of the memory block it holds, the dirty flag, and an opaque data
// placeholder.
type Block struct {
	LineID  int
	SetID   int
	WayID   int
	Tag     uint64
	Data    uint64
	IsValid bool
	IsDirty bool
}

// A Set is the group of blocks a given piece of memory can be stored at. The
// LRUQueue orders the set's blocks from least- to most-recently used.
type Set struct {
	Blocks   []*Block
	LRUQueue []*Block
}

// A Directory stores which memory blocks currently occupy the cache. It is
// laid out as sets of ways: a direct-mapped cache is modeled as one way per
// set, a fully-associative cache as a single set holding every line.
type Directory struct {
	NumSets int
	NumWays int
	Sets    []Set

	victimFinder VictimFinder
}

// NewDirectory returns a directory with numSets*numWays all-invalid lines.
func NewDirectory(numSets, numWays int, victimFinder VictimFinder) *Directory {
	d := &Directory{
		NumSets:      numSets,
		NumWays:      numWays,
		victimFinder: victimFinder,
	}

	d.Reset()

	return d
}

// Lookup finds the valid block holding the addressed tag. It returns nil on
// a miss; a miss is an expected outcome, not an error.
func (d *Directory) Lookup(addr Address) *Block {
	set := &d.Sets[addr.Index]
	for _, block := range set.Blocks {
		if block.IsValid && block.Tag == addr.Tag {
			return block
		}
	}

	return nil
}

// FindVictim returns the block that a fill for addr should use. If the
// returned block is valid, the caller is performing an eviction.
func (d *Directory) FindVictim(addr Address) *Block {
	return d.victimFinder.FindVictim(&d.Sets[addr.Index])
}

// Visit moves the block to the most-recently-used end of its set's LRU
// queue. It is called on every hit and every fill.
func (d *Directory) Visit(block *Block) {
	set := &d.Sets[block.SetID]
	newQueue := make([]*Block, 0, len(set.LRUQueue))

	for _, b := range set.LRUQueue {
		if b != block {
			newQueue = append(newQueue, b)
		}
	}

	set.LRUQueue = append(newQueue, block)
}

// Lines returns every block in line-index order.
func (d *Directory) Lines() []*Block {
	lines := make([]*Block, 0, d.NumSets*d.NumWays)
	for i := range d.Sets {
		lines = append(lines, d.Sets[i].Blocks...)
	}

	return lines
}

// Reset marks all the blocks in the directory invalid and restores the
// initial LRU order.
func (d *Directory) Reset() {
	d.Sets = make([]Set, d.NumSets)
	for i := 0; i < d.NumSets; i++ {
		for j := 0; j < d.NumWays; j++ {
			block := &Block{
				LineID: i*d.NumWays + j,
				SetID:  i,
				WayID:  j,
			}

			d.Sets[i].Blocks = append(d.Sets[i].Blocks, block)
			d.Sets[i].LRUQueue = append(d.Sets[i].LRUQueue, block)
		}
	}
}
