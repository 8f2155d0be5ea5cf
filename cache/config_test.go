package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = Config{
			CacheSize:   16,
			BlockSize:   4,
			Placement:   DirectMapped,
			WritePolicy: WriteBack,
		}
	})

	It("should accept a valid configuration", func() {
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should reject a non-power-of-two cache size", func() {
		cfg.CacheSize = 24
		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should reject a zero cache size", func() {
		cfg.CacheSize = 0
		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should reject a negative block size", func() {
		cfg.BlockSize = -4
		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should reject a block larger than the cache", func() {
		cfg.BlockSize = 32
		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should reject an unknown placement", func() {
		cfg.Placement = Placement(42)
		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should reject an unknown write policy", func() {
		cfg.WritePolicy = WritePolicy(42)
		Expect(cfg.Validate()).To(MatchError(ErrInvalidConfig))
	})

	It("should derive direct-mapped geometry", func() {
		g := cfg.Geometry()

		Expect(g.NumLines).To(Equal(4))
		Expect(g.OffsetBits).To(Equal(2))
		Expect(g.IndexBits).To(Equal(2))
		Expect(g.TagBits).To(Equal(28))
	})

	It("should derive fully-associative geometry", func() {
		cfg.Placement = FullyAssociative
		g := cfg.Geometry()

		Expect(g.NumLines).To(Equal(4))
		Expect(g.OffsetBits).To(Equal(2))
		Expect(g.IndexBits).To(Equal(0))
		Expect(g.TagBits).To(Equal(30))
	})

	It("should parse placement and write policy names", func() {
		Expect(ParsePlacement("direct-mapped")).To(Equal(DirectMapped))
		Expect(ParsePlacement("fully-associative")).
			To(Equal(FullyAssociative))
		Expect(ParseWritePolicy("write-through")).To(Equal(WriteThrough))
		Expect(ParseWritePolicy("write-back")).To(Equal(WriteBack))

		_, err := ParsePlacement("set-associative")
		Expect(err).To(MatchError(ErrInvalidConfig))

		_, err = ParseWritePolicy("write-around")
		Expect(err).To(MatchError(ErrInvalidConfig))
	})
})
