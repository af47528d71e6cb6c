package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"proxtest/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestGetCode_DomainKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"name resolution", &core.NameResolutionError{Name: "X", Column: "origin"}, CodeNameResolution},
		{"join", &core.JoinError{Origin: "A", Destination: "B"}, CodeJoinFailed},
		{"schema", core.NewSchemaError("lookup", "origin", 1, "empty"), CodeSchemaInvalid},
		{"empty input", fmt.Errorf("%w: observed", core.ErrEmptyInput), CodeSchemaInvalid},
		{"config", core.NewConfigError("iterations", "must be positive"), CodeConfigInvalid},
		{"plain", stderrors.New("boom"), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestWrap_KeepsDomainCodeAndChain(t *testing.T) {
	base := &core.JoinError{Iteration: 3, Row: 1, Origin: "A", Destination: "B"}
	wrapped := Wrapf(base, "run %s failed", "r1")

	assert.Equal(t, CodeJoinFailed, GetCode(wrapped))
	assert.True(t, core.IsJoinError(wrapped))

	var joinErr *core.JoinError
	assert.True(t, stderrors.As(wrapped, &joinErr))
	assert.Equal(t, 3, joinErr.Iteration)

	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("conn refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.True(t, IsAppError(err))
}
