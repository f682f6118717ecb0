package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitSetIntersects(t *testing.T) {
	a := FromIndices(1, 5, 9)
	b := FromIndices(9, 20)
	c := FromIndices(2, 3)

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}

func TestBitSetNilIsEmptySet(t *testing.T) {
	var b *BitSet
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Count())
	assert.True(t, b.IsDisjoint(FromIndices(1)))
	assert.False(t, b.Intersects(FromIndices(1)))
}

func TestTypeIndexBitsForEmptyIsNil(t *testing.T) {
	ti := NewTypeIndex()
	assert.Nil(t, ti.bitsFor(nil))
}
