package tokenizer

import (
	"encoding/binary"
	"hash/fnv"
)

// Bucketer folds token sequences into [0, Size()) with FNV-1a, so that a
// tokenizer with a large vocabulary can feed a small embedding table.
type Bucketer struct {
	size int
}

// NewBucketer creates a bucketer with size buckets. size < 1 is treated as 1.
func NewBucketer(size int) *Bucketer {
	return &Bucketer{size: max(size, 1)}
}

// Size returns the number of buckets.
func (b *Bucketer) Size() int {
	return b.size
}

// Bucket hashes the whole sequence to one bucket.
func (b *Bucketer) Bucket(tokens []int32) int {
	h := fnv.New64a()
	var buf [4]byte
	for _, t := range tokens {
		binary.LittleEndian.PutUint32(buf[:], uint32(t)) //nolint:gosec // reinterpretation, not truncation
		_, _ = h.Write(buf[:])
	}
	return int(h.Sum64() % uint64(b.size)) //nolint:gosec // result < size
}

// Token maps a single token ID to a bucket.
func (b *Bucketer) Token(token int32) int {
	return b.Bucket([]int32{token})
}
