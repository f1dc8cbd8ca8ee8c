package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

func TestWriteError_StatusMapping(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation maps to 400", apperrors.Validationf("bad input"), http.StatusBadRequest},
		{"not found maps to 404", apperrors.NotFoundf("no such thing"), http.StatusNotFound},
		{"forbidden maps to 403", apperrors.Forbiddenf("not yours"), http.StatusForbidden},
		{"conflict maps to 409", apperrors.Conflictf("lost the race"), http.StatusConflict},
		{"storage maps to 500", apperrors.Storage("query", errors.New("boom")), http.StatusInternalServerError},
		{"unknown error maps to 500", errors.New("surprise"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, logger, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantStatus == http.StatusInternalServerError {
				// Internal causes never leak to the client.
				assert.NotContains(t, rec.Body.String(), "boom")
				assert.NotContains(t, rec.Body.String(), "surprise")
			}
		})
	}
}
