package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyerfyer/doc-summary-system/internal/extraction"
	"github.com/fyerfyer/doc-summary-system/internal/models"
	"github.com/fyerfyer/doc-summary-system/internal/services"
	"github.com/fyerfyer/doc-summary-system/internal/summary"
	"github.com/fyerfyer/doc-summary-system/pkg/storage"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		typ  string
	}{
		{"empty chat message", services.ErrEmptyMessage, http.StatusBadRequest, ErrorTypeValidation},
		{"wrapped empty chat message", fmt.Errorf("send: %w", services.ErrEmptyMessage), http.StatusBadRequest, ErrorTypeValidation},
		{"unknown user", models.ErrUserNotFound, http.StatusNotFound, ErrorTypeNotFound},
		{"duplicate user", models.ErrUserExists, http.StatusConflict, ErrorTypeConflict},
		{"bad detail level", summary.ErrInvalidDetailLevel, http.StatusBadRequest, ErrorTypeValidation},
		{"async disabled", services.ErrAsyncDisabled, http.StatusServiceUnavailable, ErrorTypeUnavailable},
		{"missing document", summary.NewStageError(summary.StageExtraction, storage.ErrNotFound), http.StatusNotFound, ErrorTypeNotFound},
		{"unsupported media", summary.NewStageError(summary.StageExtraction, extraction.ErrUnsupportedMedia), http.StatusBadRequest, ErrorTypeValidation},
		{"extraction upstream", summary.NewStageError(summary.StageExtraction, errors.New("textract down")), http.StatusBadGateway, ErrorTypeUpstream},
		{"reduce failure", summary.NewStageError(summary.StageReducing, errors.New("timeout")), http.StatusBadGateway, ErrorTypeUpstream},
		{"unclassified", errors.New("disk full"), http.StatusInternalServerError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.typ, appErr.Type)
		})
	}
}

func TestMapErrorKeepsAppError(t *testing.T) {
	appErr := MapError(NewConflictError("taken"))
	assert.Equal(t, http.StatusConflict, appErr.Code)
	assert.Equal(t, "taken", appErr.Message)
}
