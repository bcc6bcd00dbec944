package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/offload/internal/ir"
)

func TestUUIDv7Generator_Version(t *testing.T) {
	token := UUIDv7Generator{}.Generate()

	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, token)
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := gen.Generate()
		require.False(t, seen[token], "token %s generated twice", token)
		seen[token] = true
	}
}

func TestNextTx(t *testing.T) {
	assert.Equal(t, ir.TxID("tx-a"), NextTx(NewFixedGenerator("tx-a")))
}

func TestFixedGenerator_Sequence(t *testing.T) {
	gen := NewFixedGenerator("tx-a", "tx-b")
	assert.Equal(t, "tx-a", gen.Generate())
	assert.Equal(t, "tx-b", gen.Generate())
	assert.PanicsWithValue(t, "FixedGenerator: all tokens exhausted", func() { gen.Generate() })
}

func TestFixedGenerator_Concurrent(t *testing.T) {
	tokens := make([]string, 100)
	for i := range tokens {
		tokens[i] = uuid.NewString()
	}
	gen := NewFixedGenerator(tokens...)

	var mu sync.Mutex
	got := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				tok := gen.Generate()
				mu.Lock()
				got[tok] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, got, 100)
}
