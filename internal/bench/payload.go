package bench

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Payload returns size pseudo-random bytes. The same size and seed always
// produce the same bytes.
func Payload(size int, seed uint64) []byte {
	out := make([]byte, size)

	var counter, block [8]byte
	for i := 0; i < size; i += len(block) {
		binary.LittleEndian.PutUint64(counter[:], uint64(i))
		binary.LittleEndian.PutUint64(block[:], xxh3.HashSeed(counter[:], seed))
		copy(out[i:], block[:])
	}
	return out
}

// Fingerprint returns a short hex digest of value for reports.
func Fingerprint(value []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(value))
}
