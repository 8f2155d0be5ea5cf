package cache

// StepKind enumerates the canonical decision steps an access can go through.
// Presentation layers map kinds to display elements; the display names
// returned by String are stable.
type StepKind int

const (
	// StepFetch locates the candidate line: an index lookup for
	// direct-mapped caches, a full scan for fully-associative ones.
	StepFetch StepKind = iota

	// StepCompareTag records the outcome of the tag comparison.
	StepCompareTag

	// StepHitMiss records the hit/miss decision.
	StepHitMiss

	// StepMemoryFetch reads the missing block from backing memory.
	StepMemoryFetch

	// StepEviction discards the least recently used line of a full
	// fully-associative cache.
	StepEviction

	// StepWrite applies a write operation under the configured write
	// policy.
	StepWrite

	// StepUpdate finalizes recency order and statistics.
	StepUpdate
)

func (k StepKind) String() string {
	switch k {
	case StepFetch:
		return "Fetch"
	case StepCompareTag:
		return "Compare Tag"
	case StepHitMiss:
		return "Hit/Miss"
	case StepMemoryFetch:
		return "Memory Fetch"
	case StepEviction:
		return "LRU Eviction"
	case StepWrite:
		return "Write"
	case StepUpdate:
		return "Update Cache"
	default:
		return "Unknown"
	}
}

// A Step is one entry of the ordered decision trace of an access.
type Step struct {
	Kind        StepKind `json:"-"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// A Line is a read-only copy of one cache line, safe to hand to callers.
type Line struct {
	ID    int
	Valid bool
	Tag   uint64
	Dirty bool
	Data  uint64
}

// An AccessEvent describes everything that happened during one access. It is
// owned by the caller; the engine keeps no reference to it.
type AccessEvent struct {
	AccessNumber uint64
	Address      uint64
	Operation    Operation

	Tag      uint64
	Index    int
	HasIndex bool
	Offset   uint64

	Steps          []Step
	Hit            bool
	LineID         int
	Eviction       bool
	DirtyWriteback bool

	Lines []Line
	Stats StatsSnapshot
}

func (e *AccessEvent) addStep(kind StepKind, description string) {
	e.Steps = append(e.Steps, Step{
		Kind:        kind,
		Name:        kind.String(),
		Description: description,
	})
}
