package testutil

import (
	"fmt"
	"sync"
)

// CountingTxGenerator issues "tx-1", "tx-2", ... in order.
//
// Unlike engine.FixedGenerator it never runs out, which suits interactive
// sessions whose length a test does not know up front.
//
// Thread-safety: safe for concurrent use.
type CountingTxGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewCountingTxGenerator creates a generator. An empty prefix means "tx".
func NewCountingTxGenerator(prefix string) *CountingTxGenerator {
	if prefix == "" {
		prefix = "tx"
	}
	return &CountingTxGenerator{prefix: prefix}
}

// Generate returns the next handle.
func (g *CountingTxGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
