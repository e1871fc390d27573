package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotFoundUnwraps(t *testing.T) {
	err := fmt.Errorf("loading corpus: %w", NotFound("document", "doc1.txt"))

	require.True(t, IsNotFound(err))
	require.True(t, errors.Is(err, ErrResourceNotFound))
	require.Equal(t, http.StatusNotFound, HTTPStatusCode(err))
	require.Contains(t, err.Error(), `document "doc1.txt"`)
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrInvalidInput, http.StatusTeapot, "odd"), http.StatusTeapot},
		{"bare not found", ErrResourceNotFound, http.StatusNotFound},
		{"invalid input", fmt.Errorf("parse: %w", ErrInvalidInput), http.StatusBadRequest},
		{"not ready", ErrIndexNotReady, http.StatusServiceUnavailable},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}
