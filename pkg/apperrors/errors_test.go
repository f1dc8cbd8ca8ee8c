package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappersMatchTheirKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"validation", Validationf("reserve must be >= 0, got %d", -1), ErrValidation},
		{"not found", NotFoundf("auction %d", 42), ErrNotFound},
		{"forbidden", Forbiddenf("auction has bids"), ErrForbidden},
		{"conflict", Conflictf("bid raced and lost"), ErrConflict},
		{"storage", Storage("insert bid", errors.New("connection reset")), ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
		})
	}
}

func TestKindsSurviveFurtherWrapping(t *testing.T) {
	inner := Forbiddenf("seller cannot bid on their own auction")
	outer := fmt.Errorf("place bid: %w", inner)

	assert.ErrorIs(t, outer, ErrForbidden)
	assert.NotErrorIs(t, outer, ErrValidation)
}

func TestStorageKeepsCauseInMessage(t *testing.T) {
	err := Storage("remove image", errors.New("no such file"))
	assert.Contains(t, err.Error(), "remove image")
	assert.Contains(t, err.Error(), "no such file")
}
