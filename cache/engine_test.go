package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildEngine(placement Placement, writePolicy WritePolicy) *Engine {
	engine, err := New(Config{
		CacheSize:   16,
		BlockSize:   4,
		Placement:   placement,
		WritePolicy: writePolicy,
	})
	Expect(err).NotTo(HaveOccurred())

	return engine
}

func mustAccess(engine *Engine, address int64, op Operation) *AccessEvent {
	ev, err := engine.Access(address, op)
	Expect(err).NotTo(HaveOccurred())

	return ev
}

var _ = Describe("Engine", func() {
	It("should reject an invalid configuration before creating state", func() {
		_, err := New(Config{CacheSize: 10, BlockSize: 4})
		Expect(err).To(MatchError(ErrInvalidConfig))
	})

	It("should start with all lines invalid", func() {
		engine := buildEngine(DirectMapped, WriteBack)

		state := engine.State()
		Expect(state.Lines).To(HaveLen(4))
		for _, line := range state.Lines {
			Expect(line.Valid).To(BeFalse())
			Expect(line.Dirty).To(BeFalse())
		}
		Expect(state.Stats.TotalAccesses).To(BeZero())
	})

	It("should reject a negative address without mutating state", func() {
		engine := buildEngine(DirectMapped, WriteBack)
		mustAccess(engine, 0, Write)
		before := engine.State()

		_, err := engine.Access(-1, Read)

		Expect(err).To(MatchError(ErrInvalidAddress))
		Expect(engine.State()).To(Equal(before))
	})

	Context("when direct-mapped", func() {
		It("should always miss on alternating conflicting tags", func() {
			engine := buildEngine(DirectMapped, WriteBack)

			for _, addr := range []int64{0, 16, 32, 0, 16, 32} {
				ev := mustAccess(engine, addr, Read)
				Expect(ev.Hit).To(BeFalse())
				Expect(ev.LineID).To(Equal(0))
			}

			stats := engine.State().Stats
			Expect(stats.Hits).To(Equal(uint64(0)))
			Expect(stats.Misses).To(Equal(uint64(6)))
		})

		It("should hit on every repeated access after the first", func() {
			engine := buildEngine(DirectMapped, WriteBack)
			sequence := []int64{0, 4, 8, 12, 0, 4, 8, 12}

			for i, addr := range sequence {
				ev := mustAccess(engine, addr, Read)
				Expect(ev.Hit).To(Equal(i >= 4),
					"access %d to address %d", i, addr)
			}

			stats := engine.State().Stats
			Expect(stats.Hits).To(Equal(uint64(4)))
			Expect(stats.Misses).To(Equal(uint64(4)))
		})

		It("should flag a conflict replacement as an eviction", func() {
			engine := buildEngine(DirectMapped, WriteBack)

			first := mustAccess(engine, 0, Read)
			Expect(first.Eviction).To(BeFalse())

			second := mustAccess(engine, 16, Read)
			Expect(second.Eviction).To(BeTrue())
			Expect(second.LineID).To(Equal(0))
		})
	})

	Context("when fully-associative", func() {
		It("should fit three distinct blocks without eviction", func() {
			engine := buildEngine(FullyAssociative, WriteBack)

			hits := 0
			for _, addr := range []int64{0, 16, 32, 0, 16, 32} {
				ev := mustAccess(engine, addr, Read)
				Expect(ev.Eviction).To(BeFalse())
				if ev.Hit {
					hits++
				}
			}

			Expect(hits).To(Equal(3))
			Expect(engine.State().Stats.HitRatio).To(Equal(0.5))
		})

		It("should fill invalid lines lowest-index first", func() {
			engine := buildEngine(FullyAssociative, WriteBack)

			for i, addr := range []int64{0, 16, 32, 48} {
				ev := mustAccess(engine, addr, Read)
				Expect(ev.LineID).To(Equal(i))
			}
		})

		It("should evict the least recently used line", func() {
			engine := buildEngine(FullyAssociative, WriteBack)

			for _, addr := range []int64{0, 16, 32, 48} {
				mustAccess(engine, addr, Read)
			}

			// Refresh line 0 so that line 1 (holding 16) is the LRU.
			mustAccess(engine, 0, Read)

			ev := mustAccess(engine, 64, Read)
			Expect(ev.Hit).To(BeFalse())
			Expect(ev.Eviction).To(BeTrue())
			Expect(ev.LineID).To(Equal(1))

			// 16 is gone, 0 is still resident.
			Expect(mustAccess(engine, 0, Read).Hit).To(BeTrue())
			Expect(mustAccess(engine, 16, Read).Hit).To(BeFalse())
		})
	})

	Context("when write-through", func() {
		It("should never mark a line dirty", func() {
			engine := buildEngine(DirectMapped, WriteThrough)

			for _, addr := range []int64{0, 4, 0, 16, 4, 32} {
				mustAccess(engine, addr, Write)
				for _, line := range engine.State().Lines {
					Expect(line.Dirty).To(BeFalse())
				}
			}
		})

		It("should write memory on every write", func() {
			engine := buildEngine(DirectMapped, WriteThrough)

			mustAccess(engine, 0, Write)
			mustAccess(engine, 0, Write)
			mustAccess(engine, 0, Read)

			Expect(engine.State().Stats.MemoryWrites).To(Equal(uint64(2)))
		})
	})

	Context("when write-back", func() {
		It("should set the dirty bit instead of writing memory", func() {
			engine := buildEngine(DirectMapped, WriteBack)

			ev := mustAccess(engine, 0, Write)

			Expect(ev.Lines[0].Dirty).To(BeTrue())
			Expect(ev.Stats.MemoryWrites).To(Equal(uint64(0)))
		})

		It("should write a dirty line back only when it is evicted", func() {
			engine := buildEngine(DirectMapped, WriteBack)

			mustAccess(engine, 0, Write)
			Expect(engine.State().Stats.MemoryWrites).To(Equal(uint64(0)))

			ev := mustAccess(engine, 16, Read)

			Expect(ev.DirtyWriteback).To(BeTrue())
			Expect(ev.Stats.MemoryWrites).To(Equal(uint64(1)))
			Expect(ev.Lines[0].Dirty).To(BeFalse())
		})

		It("should not write back a clean evicted line", func() {
			engine := buildEngine(DirectMapped, WriteBack)

			mustAccess(engine, 0, Read)
			ev := mustAccess(engine, 16, Read)

			Expect(ev.Eviction).To(BeTrue())
			Expect(ev.DirtyWriteback).To(BeFalse())
			Expect(ev.Stats.MemoryWrites).To(Equal(uint64(0)))
		})
	})

	Describe("step trace", func() {
		It("should trace a read hit", func() {
			engine := buildEngine(DirectMapped, WriteBack)
			mustAccess(engine, 0, Read)

			ev := mustAccess(engine, 0, Read)

			Expect(stepKinds(ev)).To(Equal([]StepKind{
				StepFetch, StepCompareTag, StepHitMiss, StepUpdate,
			}))
		})

		It("should trace a write miss with miss handling first", func() {
			engine := buildEngine(DirectMapped, WriteBack)

			ev := mustAccess(engine, 0, Write)

			Expect(stepKinds(ev)).To(Equal([]StepKind{
				StepFetch, StepCompareTag, StepHitMiss,
				StepMemoryFetch, StepWrite, StepUpdate,
			}))
		})

		It("should trace a fully-associative eviction", func() {
			engine := buildEngine(FullyAssociative, WriteBack)
			for _, addr := range []int64{0, 16, 32, 48} {
				mustAccess(engine, addr, Read)
			}

			ev := mustAccess(engine, 64, Read)

			Expect(stepKinds(ev)).To(Equal([]StepKind{
				StepFetch, StepCompareTag, StepHitMiss,
				StepMemoryFetch, StepEviction, StepUpdate,
			}))
		})

		It("should use the canonical step names", func() {
			engine := buildEngine(FullyAssociative, WriteBack)

			ev := mustAccess(engine, 0, Write)

			names := make([]string, len(ev.Steps))
			for i, step := range ev.Steps {
				names[i] = step.Name
			}
			Expect(names).To(Equal([]string{
				"Fetch", "Compare Tag", "Hit/Miss",
				"Memory Fetch", "Write", "Update Cache",
			}))
		})
	})

	It("should keep hits+misses equal to total accesses", func() {
		engine := buildEngine(FullyAssociative, WriteBack)

		for _, addr := range []int64{0, 4, 64, 0, 128, 4, 256, 320} {
			ev := mustAccess(engine, addr, Write)
			Expect(ev.Stats.Hits + ev.Stats.Misses).
				To(Equal(ev.Stats.TotalAccesses))
		}
	})

	It("should replay to an identical state after reset", func() {
		sequence := []struct {
			addr int64
			op   Operation
		}{
			{0, Write}, {16, Read}, {32, Write},
			{0, Read}, {48, Write}, {16, Write},
		}

		engine := buildEngine(FullyAssociative, WriteBack)
		for _, access := range sequence {
			mustAccess(engine, access.addr, access.op)
		}
		before := engine.State()

		engine.Reset()

		afterReset := engine.State()
		Expect(afterReset.Stats.TotalAccesses).To(BeZero())
		for _, line := range afterReset.Lines {
			Expect(line.Valid).To(BeFalse())
		}

		for _, access := range sequence {
			mustAccess(engine, access.addr, access.op)
		}

		Expect(engine.State()).To(Equal(before))
	})
})

func stepKinds(ev *AccessEvent) []StepKind {
	kinds := make([]StepKind, len(ev.Steps))
	for i, step := range ev.Steps {
		kinds[i] = step.Kind
	}

	return kinds
}
