// Package cache implements a deterministic simulation of a hardware memory
// cache. It models address decomposition, block placement, LRU replacement,
// write policies, and the memory traffic each access generates, and reports
// every decision as an ordered trace of steps so that a presentation layer
// can replay them.
package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// AddressWidth is the width, in bits, of the simulated address space. Tag
// widths reported in the geometry are derived from it.
const AddressWidth = 32

// ErrInvalidConfig is returned when a cache cannot be built from the given
// configuration.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Placement determines how a memory block maps to cache lines.
type Placement int

const (
	// DirectMapped places each block in exactly one line selected by the
	// index bits of the address.
	DirectMapped Placement = iota

	// FullyAssociative allows a block to occupy any line, with LRU
	// replacement.
	FullyAssociative
)

func (p Placement) String() string {
	switch p {
	case DirectMapped:
		return "direct-mapped"
	case FullyAssociative:
		return "fully-associative"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// ParsePlacement converts the wire name of a placement policy.
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "direct-mapped":
		return DirectMapped, nil
	case "fully-associative":
		return FullyAssociative, nil
	default:
		return 0, fmt.Errorf("%w: unknown placement %q", ErrInvalidConfig, s)
	}
}

// WritePolicy determines how write operations propagate to backing memory.
type WritePolicy int

const (
	// WriteThrough forwards every write to memory immediately.
	WriteThrough WritePolicy = iota

	// WriteBack defers memory writes until a dirty line is evicted.
	WriteBack
)

func (p WritePolicy) String() string {
	switch p {
	case WriteThrough:
		return "write-through"
	case WriteBack:
		return "write-back"
	default:
		return fmt.Sprintf("writepolicy(%d)", int(p))
	}
}

// ParseWritePolicy converts the wire name of a write policy.
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch s {
	case "write-through":
		return WriteThrough, nil
	case "write-back":
		return WriteBack, nil
	default:
		return 0, fmt.Errorf("%w: unknown write policy %q", ErrInvalidConfig, s)
	}
}

// Config describes the cache to simulate. It is fixed at engine construction
// and never mutated afterwards.
type Config struct {
	CacheSize   int
	BlockSize   int
	Placement   Placement
	WritePolicy WritePolicy
}

// Validate checks the geometry constraints. All violations are reported as
// ErrInvalidConfig.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.CacheSize) {
		return fmt.Errorf("%w: cache size %d must be a positive power of two",
			ErrInvalidConfig, c.CacheSize)
	}

	if !isPowerOfTwo(c.BlockSize) {
		return fmt.Errorf("%w: block size %d must be a positive power of two",
			ErrInvalidConfig, c.BlockSize)
	}

	if c.BlockSize > c.CacheSize {
		return fmt.Errorf("%w: block size %d exceeds cache size %d",
			ErrInvalidConfig, c.BlockSize, c.CacheSize)
	}

	if c.Placement != DirectMapped && c.Placement != FullyAssociative {
		return fmt.Errorf("%w: unknown placement %d",
			ErrInvalidConfig, int(c.Placement))
	}

	if c.WritePolicy != WriteThrough && c.WritePolicy != WriteBack {
		return fmt.Errorf("%w: unknown write policy %d",
			ErrInvalidConfig, int(c.WritePolicy))
	}

	return nil
}

// Geometry derives the line count and bit-field widths from the
// configuration. Validate must have passed.
func (c Config) Geometry() Geometry {
	g := Geometry{
		CacheSize:  c.CacheSize,
		BlockSize:  c.BlockSize,
		NumLines:   c.CacheSize / c.BlockSize,
		Placement:  c.Placement,
		OffsetBits: log2(c.BlockSize),
	}

	if c.Placement == DirectMapped {
		g.IndexBits = log2(g.NumLines)
	}

	g.TagBits = AddressWidth - g.OffsetBits - g.IndexBits

	return g
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n int) int {
	return bits.Len(uint(n)) - 1
}
