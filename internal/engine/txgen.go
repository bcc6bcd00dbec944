package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/offload/internal/ir"
)

// TxGenerator issues transaction handles for hosts that do not bring
// their own. Implemented by UUIDv7Generator and FixedGenerator.
type TxGenerator interface {
	Generate() string
}

// NextTx draws a handle from gen.
func NextTx(gen TxGenerator) ir.TxID {
	return ir.TxID(gen.Generate())
}

// UUIDv7Generator issues time-ordered UUIDv7 handles, so handles sort in
// submission order in journals and traces.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7.
// Panics if the random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined handles in order, for tests and
// golden comparisons.
//
// Safe for concurrent use.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator over tokens.
//
//	gen := NewFixedGenerator("tx-a", "tx-b")
//	gen.Generate() // "tx-a"
//	gen.Generate() // "tx-b"
//	gen.Generate() // panic
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next token. Running out panics: the test asked for
// more transactions than it planned.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
