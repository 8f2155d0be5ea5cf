package datarecording

import "github.com/sarchlab/cachevis/cache"

// AccessTableName is the table trace recorders write cache accesses to.
const AccessTableName = "cache_accesses"

// AccessEntry is one recorded cache access, flattened so that every field is
// a SQLite-storable scalar.
type AccessEntry struct {
	Session        string
	AccessNumber   uint64
	Address        uint64
	Operation      string
	Tag            uint64
	LineIndex      int64
	Offset         uint64
	Hit            bool
	Eviction       bool
	DirtyWriteback bool
	AffectedLine   int
}

// NewAccessEntry flattens an AccessEvent into a recordable row. Accesses
// without an index field (fully-associative) store -1.
func NewAccessEntry(session string, ev *cache.AccessEvent) AccessEntry {
	lineIndex := int64(-1)
	if ev.HasIndex {
		lineIndex = int64(ev.Index)
	}

	return AccessEntry{
		Session:        session,
		AccessNumber:   ev.AccessNumber,
		Address:        ev.Address,
		Operation:      ev.Operation.String(),
		Tag:            ev.Tag,
		LineIndex:      lineIndex,
		Offset:         ev.Offset,
		Hit:            ev.Hit,
		Eviction:       ev.Eviction,
		DirtyWriteback: ev.DirtyWriteback,
		AffectedLine:   ev.LineID,
	}
}

// An AccessLogger records the accesses of one session into a DataRecorder.
type AccessLogger struct {
	session  string
	recorder DataRecorder
}

// NewAccessLogger creates an access logger, creating the access table if the
// recorder does not have it yet.
func NewAccessLogger(session string, recorder DataRecorder) *AccessLogger {
	hasTable := false
	for _, name := range recorder.ListTables() {
		if name == AccessTableName {
			hasTable = true
		}
	}

	if !hasTable {
		recorder.CreateTable(AccessTableName, AccessEntry{})
	}

	return &AccessLogger{
		session:  session,
		recorder: recorder,
	}
}

// Record writes one access event.
func (l *AccessLogger) Record(ev *cache.AccessEvent) {
	l.recorder.InsertData(AccessTableName, NewAccessEntry(l.session, ev))
}
