package monitoring

import "github.com/sarchlab/cachevis/cache"

// lineJSON renders one cache line the way the front end consumes it: 0/1
// flags, null tag/data on invalid lines. Hex formatting stays client-side.
type lineJSON struct {
	Valid int     `json:"valid"`
	Tag   *uint64 `json:"tag"`
	Dirty int     `json:"dirty"`
	Data  *uint64 `json:"data"`
}

type bitsJSON struct {
	Tag    int  `json:"tag"`
	Index  *int `json:"index,omitempty"`
	Offset int  `json:"offset"`
}

type cacheStateJSON struct {
	Type        string         `json:"type"`
	Size        int            `json:"size"`
	BlockSize   int            `json:"block_size"`
	NumLines    int            `json:"num_lines"`
	WritePolicy string         `json:"write_policy"`
	Bits        bitsJSON       `json:"bits"`
	Lines       []lineJSON     `json:"lines"`
	Statistics  map[string]any `json:"statistics"`
}

func stateJSON(engine *cache.Engine) cacheStateJSON {
	cfg := engine.Config()
	geom := engine.Geometry()
	state := engine.State()

	rendered := cacheStateJSON{
		Type:        cfg.Placement.String(),
		Size:        geom.CacheSize,
		BlockSize:   geom.BlockSize,
		NumLines:    geom.NumLines,
		WritePolicy: cfg.WritePolicy.String(),
		Bits: bitsJSON{
			Tag:    geom.TagBits,
			Offset: geom.OffsetBits,
		},
		Lines:      renderLines(state.Lines),
		Statistics: renderStats(state.Stats),
	}

	if cfg.Placement == cache.DirectMapped {
		indexBits := geom.IndexBits
		rendered.Bits.Index = &indexBits
	}

	return rendered
}

func renderLines(lines []cache.Line) []lineJSON {
	rendered := make([]lineJSON, len(lines))

	for i, line := range lines {
		rendered[i] = lineJSON{}

		if line.Valid {
			tag, data := line.Tag, line.Data
			rendered[i].Valid = 1
			rendered[i].Tag = &tag
			rendered[i].Data = &data
		}

		if line.Dirty {
			rendered[i].Dirty = 1
		}
	}

	return rendered
}

func renderStats(s cache.StatsSnapshot) map[string]any {
	return map[string]any{
		"total_accesses":       s.TotalAccesses,
		"hits":                 s.Hits,
		"misses":               s.Misses,
		"hit_ratio":            s.HitRatio,
		"miss_ratio":           s.MissRatio,
		"memory_reads":         s.MemoryReads,
		"memory_writes":        s.MemoryWrites,
		"total_memory_traffic": s.TotalMemoryTraffic,
	}
}

type stepJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func eventJSON(ev *cache.AccessEvent) map[string]any {
	decomposition := map[string]any{
		"tag":    ev.Tag,
		"offset": ev.Offset,
	}
	if ev.HasIndex {
		decomposition["index"] = ev.Index
	}

	steps := make([]stepJSON, len(ev.Steps))
	for i, step := range ev.Steps {
		steps[i] = stepJSON{Name: step.Name, Description: step.Description}
	}

	return map[string]any{
		"success":         true,
		"access_number":   ev.AccessNumber,
		"address":         ev.Address,
		"operation":       ev.Operation.String(),
		"decomposition":   decomposition,
		"steps":           steps,
		"hit":             ev.Hit,
		"eviction":        ev.Eviction,
		"dirty_writeback": ev.DirtyWriteback,
		"affected_line":   ev.LineID,
		"cache_state":     renderLines(ev.Lines),
		"statistics":      renderStats(ev.Stats),
	}
}
