package cache

import "errors"

// ErrInvalidAddress is returned when an access is requested for a negative
// address. The call is rejected before any state is touched.
var ErrInvalidAddress = errors.New("invalid address")

// Geometry holds the derived layout of a cache: line count and the widths of
// the tag, index, and offset fields of an address.
type Geometry struct {
	CacheSize  int       `json:"cache_size"`
	BlockSize  int       `json:"block_size"`
	NumLines   int       `json:"num_lines"`
	Placement  Placement `json:"-"`
	TagBits    int       `json:"tag_bits"`
	IndexBits  int       `json:"index_bits"`
	OffsetBits int       `json:"offset_bits"`
}

// Address is the decomposed form of a memory address under a particular
// geometry. Index is only meaningful when HasIndex is true; fully-associative
// caches have no index field and always map to set 0.
type Address struct {
	Raw      uint64
	Tag      uint64
	Index    int
	HasIndex bool
	Offset   uint64
}

// Decompose splits an address into tag, index, and offset by pure bit
// extraction. Negative addresses must be rejected by the caller before
// conversion to uint64.
func (g Geometry) Decompose(addr uint64) Address {
	a := Address{
		Raw:    addr,
		Offset: addr & uint64(g.BlockSize-1),
	}

	if g.Placement == DirectMapped {
		a.Index = int((addr >> g.OffsetBits) & uint64(g.NumLines-1))
		a.HasIndex = true
	}

	a.Tag = addr >> (g.OffsetBits + g.IndexBits)

	return a
}
