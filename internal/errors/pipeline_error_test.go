package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		want string
	}{
		{
			name: "with column",
			err:  NewColumnNotFoundError("filter", "price"),
			want: `filter operation failed on column "price": column does not exist`,
		},
		{
			name: "without column",
			err:  NewUnsupportedFunctionError("mapColumn", "FROB"),
			want: "mapColumn operation failed: unsupported function: FROB",
		},
		{
			name: "message only",
			err:  &PipelineError{Message: "bad plan"},
			want: "bad plan",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPipelineError_Is(t *testing.T) {
	a := NewColumnNotFoundError("select", "region")
	b := NewColumnNotFoundError("select", "region")
	c := NewColumnNotFoundError("select", "city")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
	assert.False(t, stderrors.Is(a, stderrors.New("other")))
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewCollaboratorError("convertUnits", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, KindCollaborator, err.Kind)
	wrapped := fmt.Errorf("outer: %w", err)
	var pe *PipelineError
	assert.True(t, stderrors.As(wrapped, &pe))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "plan validation", KindPlanValidation.String())
	assert.Equal(t, "unknown operation", KindUnknownOperation.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
