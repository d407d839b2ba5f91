package client

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_GetParsesDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"total_atoms":42}}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)
	resp, err := api.Get("/stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_atoms":42}`, string(resp.Data))
}

func TestAPIClient_ErrorEnvelopeBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"atom not found"}`))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)
	_, err := api.Get("/atoms/missing")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "atom not found", apiErr.Message)
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig(srv.URL)
	_, err := api.Get("/health")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream exploded")
}

func TestProgressReader_ReportsProgress(t *testing.T) {
	data := []byte("siemens g120 commissioning manual contents")

	var last struct{ current, total int64 }
	pr := &progressReader{
		reader: bytes.NewReader(data),
		total:  int64(len(data)),
		onProgress: func(current, total int64) {
			last.current, last.total = current, total
		},
	}

	out, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, int64(len(data)), last.current)
	assert.Equal(t, int64(len(data)), last.total)
}

func TestProgressReader_NilCallback(t *testing.T) {
	data := []byte("no callback")
	pr := &progressReader{
		reader: bytes.NewReader(data),
		total:  int64(len(data)),
	}

	out, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
