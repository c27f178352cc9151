package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/calib-cli/internal/calib"
	"github.com/sells-group/calib-cli/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return newRouter(newTestStore(t), calib.Options{ThresholdPos: 2}, nil)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPath(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := getPath(testRouter(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRouter_FitAndCalibrate(t *testing.T) {
	h := testRouter(t)

	rec := postJSON(t, h, "/v1/fit", map[string]any{
		"name":   "api-model",
		"scores": []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
		"labels": []int{0, 0, 1, 0, 1, 1, 0, 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var fitResp struct {
		ID         string    `json:"id"`
		Bins       int       `json:"bins"`
		Boundaries []float64 `json:"boundaries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fitResp))
	assert.NotEmpty(t, fitResp.ID)
	assert.Greater(t, fitResp.Bins, 0)
	assert.Len(t, fitResp.Boundaries, fitResp.Bins)

	rec = postJSON(t, h, "/v1/calibrate", map[string]any{
		"model":  fitResp.ID,
		"scores": []float64{0.05, 0.45, 0.95},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var calResp struct {
		Model      string    `json:"model"`
		Calibrated []float64 `json:"calibrated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calResp))
	assert.Equal(t, fitResp.ID, calResp.Model)
	require.Len(t, calResp.Calibrated, 3)
	for _, p := range calResp.Calibrated {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}

	// "latest" resolves to the same model.
	rec = postJSON(t, h, "/v1/calibrate", map[string]any{
		"model":  "latest",
		"scores": []float64{0.45},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calResp))
	assert.Equal(t, fitResp.ID, calResp.Model)
}

func TestRouter_Calibrate_ModelNotFound(t *testing.T) {
	rec := postJSON(t, testRouter(t), "/v1/calibrate", map[string]any{
		"model":  "no-such-id",
		"scores": []float64{0.5},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Calibrate_NoScores(t *testing.T) {
	rec := postJSON(t, testRouter(t), "/v1/calibrate", map[string]any{
		"model": "latest",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Fit_InvalidBody(t *testing.T) {
	h := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/fit", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Fit_BadData(t *testing.T) {
	rec := postJSON(t, testRouter(t), "/v1/fit", map[string]any{
		"scores": []float64{1.5, 0.2},
		"labels": []int{0, 1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_ListAndGetModels(t *testing.T) {
	h := testRouter(t)

	rec := postJSON(t, h, "/v1/fit", map[string]any{
		"name":   "listed",
		"scores": []float64{0.2, 0.2, 0.8, 0.8},
		"labels": []int{0, 1, 0, 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var fitResp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fitResp))

	rec = getPath(h, "/v1/models")
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Models []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Models, 1)
	assert.Equal(t, "listed", listResp.Models[0].Name)

	rec = getPath(h, "/v1/models/"+fitResp.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fitResp.ID)

	rec = getPath(h, "/v1/models/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	h := newRouter(newTestStore(t), calib.Options{ThresholdPos: 2}, rate.NewLimiter(rate.Limit(0.001), 1))

	rec := getPath(h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = getPath(h, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
