package export

import (
	"crypto/sha256"
	"sync"
)

// ChecksumGate remembers the checksum of the last exported content. Sums
// are taken from the bytes that were uploaded, never re-read from disk.
type ChecksumGate struct {
	mu     sync.Mutex
	last   [sha256.Size]byte
	marked bool
}

func Checksum(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}

// Changed reports whether sum differs from the last marked one.
func (g *ChecksumGate) Changed(sum [sha256.Size]byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.marked || g.last != sum
}

func (g *ChecksumGate) Mark(sum [sha256.Size]byte) {
	g.mu.Lock()
	g.last = sum
	g.marked = true
	g.mu.Unlock()
}
