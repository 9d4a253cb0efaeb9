package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformedNameRoundTrip(t *testing.T) {
	artifact := TransformedName("fondo1.json")
	assert.Equal(t, "fondo1_transformed.json", artifact)

	key, ok := SourceKeyFromTransformed(artifact)
	assert.True(t, ok)
	assert.Equal(t, "fondo1.json", key)

	_, ok = SourceKeyFromTransformed("fondo1.json")
	assert.False(t, ok)
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "pdf", NormalizeExt(".PDF"))
	assert.Equal(t, "json", NormalizeExt("json"))
}
