package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Geometry", func() {
	It("should decompose a direct-mapped address", func() {
		g := Config{
			CacheSize: 16, BlockSize: 4,
			Placement: DirectMapped,
		}.Geometry()

		a := g.Decompose(0x2a)

		Expect(a.Offset).To(Equal(uint64(2)))
		Expect(a.HasIndex).To(BeTrue())
		Expect(a.Index).To(Equal(2))
		Expect(a.Tag).To(Equal(uint64(2)))
	})

	It("should decompose address 0 to all-zero fields", func() {
		g := Config{
			CacheSize: 16, BlockSize: 4,
			Placement: DirectMapped,
		}.Geometry()

		a := g.Decompose(0)

		Expect(a.Offset).To(Equal(uint64(0)))
		Expect(a.Index).To(Equal(0))
		Expect(a.Tag).To(Equal(uint64(0)))
	})

	It("should decompose a fully-associative address without an index", func() {
		g := Config{
			CacheSize: 16, BlockSize: 4,
			Placement: FullyAssociative,
		}.Geometry()

		a := g.Decompose(0x2a)

		Expect(a.Offset).To(Equal(uint64(2)))
		Expect(a.HasIndex).To(BeFalse())
		Expect(a.Index).To(Equal(0))
		Expect(a.Tag).To(Equal(uint64(0xa)))
	})

	It("should keep an index for a one-line direct-mapped cache", func() {
		g := Config{
			CacheSize: 4, BlockSize: 4,
			Placement: DirectMapped,
		}.Geometry()

		a := g.Decompose(0x10)

		Expect(a.HasIndex).To(BeTrue())
		Expect(a.Index).To(Equal(0))
		Expect(a.Tag).To(Equal(uint64(4)))
	})

	It("should distinguish addresses that differ only in tag", func() {
		g := Config{
			CacheSize: 16, BlockSize: 4,
			Placement: DirectMapped,
		}.Geometry()

		a1 := g.Decompose(0)
		a2 := g.Decompose(16)
		a3 := g.Decompose(32)

		Expect(a1.Index).To(Equal(a2.Index))
		Expect(a2.Index).To(Equal(a3.Index))
		Expect(a1.Tag).NotTo(Equal(a2.Tag))
		Expect(a2.Tag).NotTo(Equal(a3.Tag))
	})
})
