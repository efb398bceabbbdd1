package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelIndex_AddMatchRemove(t *testing.T) {
	ix := make(levelIndex)

	ix.update(100, 10, levelAdd)
	ix.update(100, 7, levelAdd)
	require.Equal(t, Quantity(17), ix.quantityAt(100))
	require.Equal(t, 2, ix[100].count)

	// Partial fill leaves the count untouched.
	ix.update(100, 4, levelMatch)
	assert.Equal(t, Quantity(13), ix.quantityAt(100))
	assert.Equal(t, 2, ix[100].count)

	// Full fill removes the order's remainder and its count.
	ix.update(100, 6, levelRemove)
	assert.Equal(t, Quantity(7), ix.quantityAt(100))
	assert.Equal(t, 1, ix[100].count)

	// Last order out deletes the entry.
	ix.update(100, 7, levelRemove)
	_, exists := ix[100]
	assert.False(t, exists)
	assert.Equal(t, Quantity(0), ix.quantityAt(100))
}

func TestLevelIndex_IndependentPrices(t *testing.T) {
	ix := make(levelIndex)

	ix.update(100, 10, levelAdd)
	ix.update(101, 3, levelAdd)

	ix.update(100, 10, levelRemove)
	assert.Equal(t, Quantity(0), ix.quantityAt(100))
	assert.Equal(t, Quantity(3), ix.quantityAt(101))
}
