package mlclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictClampsLimit(t *testing.T) {
	var got PredictionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"total_readings":0,"predictions":[],"summary":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Predict(t.Context(), 999999, 24)
	require.NoError(t, err)
	assert.Equal(t, MaxAnalyticsLimit, got.Limit)
	assert.Equal(t, 24, got.HoursBack)
}

func TestAnalysisBuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analysis", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("limit"))
		assert.Equal(t, "12", r.URL.Query().Get("hours_back"))
		_, _ = w.Write([]byte(`{"success":true,"analysis":{"total_readings":200}}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Analysis(t.Context(), 200, 12)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 200, resp.Analysis.TotalReadings)
}

func TestTrainDefaultsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/train", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	msg, err := New(srv.URL).Train(t.Context(), 100)
	require.NoError(t, err)
	assert.Equal(t, "Training started", msg)
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Health(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
