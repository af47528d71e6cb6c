package travel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommunityRegistry_FirstAppearanceOrder(t *testing.T) {
	table, err := NewLookupTable([]LookupRow{
		row("B", "C", 1, 1),
		row("A", "B", 1, 1),
		row("C", "A", 1, 1),
	})
	require.NoError(t, err)

	reg := NewCommunityRegistry(table)
	assert.Equal(t, []Community{"B", "C", "A"}, reg.Names())
	assert.Equal(t, 3, reg.Len())

	pos, ok := reg.Position("A")
	require.True(t, ok)
	assert.Equal(t, 2, pos)

	_, ok = reg.Position("Z")
	assert.False(t, ok)
}

func TestCommunityRegistry_NamesIsCopy(t *testing.T) {
	reg := NewCommunityRegistryFromNames([]Community{"A", "B", "A"})
	names := reg.Names()
	names[0] = "mutated"

	assert.Equal(t, []Community{"A", "B"}, reg.Names())
}

func TestNewCommunityRegistryFromRows_SkipsSelfPairs(t *testing.T) {
	reg := NewCommunityRegistryFromRows([]LookupRow{
		row("Z", "Z", 0, 0),
		row("B", "A", 1, 1),
		row("A", "C", 1, 1),
	})
	assert.Equal(t, []Community{"B", "A", "C"}, reg.Names())

	_, ok := reg.Position("Z")
	assert.False(t, ok)
}
