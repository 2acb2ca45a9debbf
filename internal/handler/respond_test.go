package handler

import (
	"bytes"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lutefd/log-pipeline/internal/logger"
	"github.com/stretchr/testify/assert"
)

func captureLogs(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	var warn, errBuf bytes.Buffer
	oldWarn, oldError := logger.WarnLogger, logger.ErrorLogger
	logger.WarnLogger = log.New(&warn, "WARN: ", 0)
	logger.ErrorLogger = log.New(&errBuf, "ERROR: ", 0)
	t.Cleanup(func() {
		logger.WarnLogger, logger.ErrorLogger = oldWarn, oldError
	})
	return &warn, &errBuf
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		msg         string
		expectWarn  string
		expectError string
	}{
		{name: "Client error logs a warning", code: http.StatusNotFound, msg: "no stats published for group billing", expectWarn: "responding with 404: no stats published for group billing"},
		{name: "Server error logs an error", code: http.StatusInternalServerError, msg: "failed to list alerts", expectError: "responding with 500: failed to list alerts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warn, errBuf := captureLogs(t)
			w := httptest.NewRecorder()

			respondWithError(w, tt.code, tt.msg)

			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.msg+`"}`, w.Body.String())
			if tt.expectWarn != "" {
				assert.Contains(t, warn.String(), tt.expectWarn)
				assert.Empty(t, errBuf.String())
			}
			if tt.expectError != "" {
				assert.Contains(t, errBuf.String(), tt.expectError)
				assert.Empty(t, warn.String())
			}
		})
	}
}

func TestRespondWithJSON_MarshalFailure(t *testing.T) {
	_, errBuf := captureLogs(t)
	w := httptest.NewRecorder()

	respondWithJSON(w, http.StatusOK, math.Inf(1))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Contains(t, errBuf.String(), "failed to marshal float64 response")
}
