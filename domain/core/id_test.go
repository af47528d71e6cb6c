package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID_Unique(t *testing.T) {
	a := NewRunID()
	b := NewRunID()

	assert.NotEmpty(t, a.String())
	assert.NotEqual(t, a, b)
}

func TestParseRunID(t *testing.T) {
	id, err := ParseRunID("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", id.String())

	_, err = ParseRunID("   ")
	assert.Error(t, err)
}
