package cache

import "fmt"

// Operation is the kind of memory access being simulated.
type Operation int

const (
	// Read loads data from the addressed block.
	Read Operation = iota

	// Write stores data to the addressed block.
	Write
)

func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// ParseOperation converts the wire name of an access operation.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

// State is a read-only snapshot of a whole cache, suitable for rendering.
type State struct {
	Lines []Line        `json:"lines"`
	Stats StatsSnapshot `json:"statistics"`
	Geom  Geometry      `json:"geometry"`
}

// An Engine simulates one cache. It is created with a fixed configuration
// and mutated only by Access and Reset. The engine itself is synchronous and
// single-threaded; callers that share one engine across goroutines must
// serialize access to it.
type Engine struct {
	cfg  Config
	geom Geometry

	dir   *Directory
	stats Stats
}

// New builds an engine with all lines invalid. The configuration is
// validated before any state is created.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:  cfg,
		geom: cfg.Geometry(),
	}

	numSets, numWays := e.geom.NumLines, 1
	if cfg.Placement == FullyAssociative {
		numSets, numWays = 1, e.geom.NumLines
	}

	e.dir = NewDirectory(numSets, numWays, NewLRUVictimFinder())

	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Geometry returns the derived cache geometry.
func (e *Engine) Geometry() Geometry {
	return e.geom
}

// Access simulates one read or write of the given address and returns the
// full decision trace. A negative address is rejected with ErrInvalidAddress
// and mutates nothing. A miss is a defined outcome, never an error.
func (e *Engine) Access(address int64, op Operation) (*AccessEvent, error) {
	if address < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAddress, address)
	}

	addr := e.geom.Decompose(uint64(address))

	ev := &AccessEvent{
		Address:   addr.Raw,
		Operation: op,
		Tag:       addr.Tag,
		Index:     addr.Index,
		HasIndex:  addr.HasIndex,
		Offset:    addr.Offset,
	}

	e.emitFetchStep(ev, addr)

	target := e.dir.Lookup(addr)
	ev.Hit = target != nil

	if ev.Hit {
		ev.addStep(StepCompareTag,
			fmt.Sprintf("tag 0x%x matches line %d", addr.Tag, target.LineID))
		ev.addStep(StepHitMiss, "cache hit")
	} else {
		e.emitMissCompareStep(ev, addr)
		ev.addStep(StepHitMiss, "cache miss, block must be fetched from memory")
		target = e.handleMiss(ev, addr)
	}

	if op == Write {
		e.applyWrite(ev, target)
	}

	e.dir.Visit(target)
	e.stats.TotalAccesses++
	if ev.Hit {
		e.stats.Hits++
	} else {
		e.stats.Misses++
	}
	ev.addStep(StepUpdate, "recency order and statistics updated")

	ev.AccessNumber = e.stats.TotalAccesses
	ev.LineID = target.LineID
	ev.Lines = e.snapshotLines()
	ev.Stats = e.stats.Snapshot()

	return ev, nil
}

func (e *Engine) emitFetchStep(ev *AccessEvent, addr Address) {
	if e.cfg.Placement == DirectMapped {
		ev.addStep(StepFetch,
			fmt.Sprintf("accessing cache line %d", addr.Index))
		return
	}

	ev.addStep(StepFetch,
		fmt.Sprintf("searching %d lines for tag 0x%x",
			e.geom.NumLines, addr.Tag))
}

func (e *Engine) emitMissCompareStep(ev *AccessEvent, addr Address) {
	if e.cfg.Placement == FullyAssociative {
		ev.addStep(StepCompareTag, "tag not found in any line")
		return
	}

	line := e.dir.Sets[addr.Index].Blocks[0]
	if line.IsValid {
		ev.addStep(StepCompareTag,
			fmt.Sprintf("tag mismatch (0x%x != 0x%x)", addr.Tag, line.Tag))
	} else {
		ev.addStep(StepCompareTag, "cache line empty (invalid)")
	}
}

// handleMiss fetches the missing block, evicting if needed, and returns the
// line that now holds it. Miss handling completes fully before any write
// step applies.
func (e *Engine) handleMiss(ev *AccessEvent, addr Address) *Block {
	e.stats.MemoryReads++
	ev.addStep(StepMemoryFetch, "reading block from memory")

	victim := e.dir.FindVictim(addr)
	if victim.IsValid {
		ev.Eviction = true
		e.evict(ev, victim)
	}

	victim.IsValid = true
	victim.Tag = addr.Tag
	victim.IsDirty = false
	victim.Data = addr.Raw

	return victim
}

func (e *Engine) evict(ev *AccessEvent, victim *Block) {
	if e.cfg.WritePolicy == WriteBack && victim.IsDirty {
		e.stats.MemoryWrites++
		victim.IsDirty = false
		ev.DirtyWriteback = true
	}

	if e.cfg.Placement != FullyAssociative {
		return
	}

	description := fmt.Sprintf("evicting least recently used line %d",
		victim.LineID)
	if ev.DirtyWriteback {
		description += ", writing dirty block back to memory"
	}

	ev.addStep(StepEviction, description)
}

func (e *Engine) applyWrite(ev *AccessEvent, target *Block) {
	target.Data = ev.Address

	if e.cfg.WritePolicy == WriteThrough {
		e.stats.MemoryWrites++
		ev.addStep(StepWrite, "write-through: cache and memory updated")
		return
	}

	target.IsDirty = true
	ev.addStep(StepWrite, "write-back: cache updated, dirty bit set")
}

// State returns a read-only snapshot of the lines, statistics, and geometry.
func (e *Engine) State() State {
	return State{
		Lines: e.snapshotLines(),
		Stats: e.stats.Snapshot(),
		Geom:  e.geom,
	}
}

// Reset discards all line state and statistics and rebuilds the initial
// all-invalid cache under the same configuration.
func (e *Engine) Reset() {
	e.dir.Reset()
	e.stats = Stats{}
}

func (e *Engine) snapshotLines() []Line {
	blocks := e.dir.Lines()
	lines := make([]Line, len(blocks))

	for i, b := range blocks {
		lines[i] = Line{
			ID:    b.LineID,
			Valid: b.IsValid,
			Tag:   b.Tag,
			Dirty: b.IsDirty,
			Data:  b.Data,
		}
	}

	return lines
}
