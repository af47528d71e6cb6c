package permtest

import (
	"testing"

	"proxtest/domain/travel"

	"github.com/stretchr/testify/assert"
)

func TestReconstruct_Identity(t *testing.T) {
	canonical := []travel.Community{"A", "B", "C", "D"}
	idx := PositionIndex{Origin: []int{0, 2, 3, 0}, Destination: []int{1, 1, 0, 1}}

	origins, destinations := Reconstruct(canonical, idx)

	assert.Equal(t, []travel.Community{"A", "C", "D", "A"}, origins)
	assert.Equal(t, []travel.Community{"B", "B", "A", "B"}, destinations)
}

func TestReconstruct_Permuted(t *testing.T) {
	perm := []travel.Community{"B", "C", "A"}
	idx := PositionIndex{Origin: []int{0}, Destination: []int{1}}

	origins, destinations := Reconstruct(perm, idx)

	assert.Equal(t, []travel.Community{"B"}, origins)
	assert.Equal(t, []travel.Community{"C"}, destinations)
}
