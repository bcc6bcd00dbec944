package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferHashStable(t *testing.T) {
	a := BufferHash("int x = 5;\n")
	b := BufferHash("int x = 5;\n")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, BufferHash("int x = 6;\n"))
}

func TestBufferHashNormalizesNFC(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent
	assert.Equal(t, BufferHash("const char* s = \"é\";"), BufferHash("const char* s = \"é\";"))
}

func TestProfileHashDomainSeparated(t *testing.T) {
	p := Profile{Compiler: "clang++"}
	h, err := ProfileHash(p)
	require.NoError(t, err)
	assert.NotEqual(t, hashWithDomain(DomainBuffer, []byte(`{}`)), h)

	p2 := p
	p2.HostArgs = []string{"-x", "c++"}
	h2, err := ProfileHash(p2)
	require.NoError(t, err)
	assert.NotEqual(t, h, h2)
}
