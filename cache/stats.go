package cache

// Stats holds the running counters of an engine. Counters only ever
// increase; hits+misses always equals total accesses at call boundaries.
// Synchronization, if any, is the owner's concern.
type Stats struct {
	TotalAccesses uint64
	Hits          uint64
	Misses        uint64
	MemoryReads   uint64
	MemoryWrites  uint64
}

// A StatsSnapshot is a copy of the counters plus derived ratios. Callers can
// hold it without aliasing engine-owned state.
type StatsSnapshot struct {
	TotalAccesses      uint64  `json:"total_accesses"`
	Hits               uint64  `json:"hits"`
	Misses             uint64  `json:"misses"`
	HitRatio           float64 `json:"hit_ratio"`
	MissRatio          float64 `json:"miss_ratio"`
	MemoryReads        uint64  `json:"memory_reads"`
	MemoryWrites       uint64  `json:"memory_writes"`
	TotalMemoryTraffic uint64  `json:"total_memory_traffic"`
}

// Snapshot returns a copy of the current counters. Ratios are 0 before the
// first access.
func (s Stats) Snapshot() StatsSnapshot {
	snapshot := StatsSnapshot{
		TotalAccesses:      s.TotalAccesses,
		Hits:               s.Hits,
		Misses:             s.Misses,
		MemoryReads:        s.MemoryReads,
		MemoryWrites:       s.MemoryWrites,
		TotalMemoryTraffic: s.MemoryReads + s.MemoryWrites,
	}

	if s.TotalAccesses > 0 {
		snapshot.HitRatio = float64(s.Hits) / float64(s.TotalAccesses)
		snapshot.MissRatio = float64(s.Misses) / float64(s.TotalAccesses)
	}

	return snapshot
}
