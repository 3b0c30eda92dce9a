package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), EINTERNAL},
		{"domain error", DuplicateAccount("op"), ECONFLICT},
		{"wrapped", fmt.Errorf("outer: %w", InsufficientCredits("op")), EINSUFFICIENTCREDITS},
		{"engine", AnalysisEngine(errors.New("timeout"), "op"), EUNAVAILABLE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessage_HidesInternalDetail(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "op", "failed to load account")
	assert.Equal(t, genericInternalMessage, ErrorMessage(err))
	assert.Equal(t, genericInternalMessage, ErrorMessage(errors.New("raw")))
}

func TestAnalysisEngine_KeepsCause(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := AnalysisEngine(cause, "op")

	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, ErrorMessage(err), "deadline")
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(Forbidden("op", "no"), EFORBIDDEN))
	assert.False(t, IsCode(nil, EFORBIDDEN))
}
