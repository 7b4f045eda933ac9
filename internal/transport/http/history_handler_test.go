package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marklens/pkg/contracts/domain"
)

func saveSnapshot(t *testing.T, router chi.Router, runID, label string) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"run_id": runID,
		"label":  label,
		"class":  "Form 3",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/snapshots", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSnapshotLifecycle(t *testing.T) {
	router := testRouter(t)
	runID := postAnalysis(t, router)

	t.Run("save and list", func(t *testing.T) {
		saveSnapshot(t, router, runID, "term1")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var listing map[string][]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
		assert.Contains(t, listing["labels"], "term1")
	})

	t.Run("get by label", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/term1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var snapshot domain.ExamSnapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
		assert.Equal(t, "term1", snapshot.Label)
		assert.Equal(t, "Form 3", snapshot.Class)
		assert.Equal(t, 2, snapshot.Records.Len())
	})

	t.Run("unknown label is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "SNAPSHOT_NOT_FOUND")
	})

	t.Run("unknown run rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"run_id": "missing", "label": "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/snapshots", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing label rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"run_id": runID})
		req := httptest.NewRequest(http.MethodPost, "/api/snapshots", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		saveSnapshot(t, router, runID, "doomed")

		req := httptest.NewRequest(http.MethodDelete, "/api/snapshots/doomed", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshots/doomed", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCompareEndpoint(t *testing.T) {
	router := testRouter(t)

	firstRun := postAnalysis(t, router)
	saveSnapshot(t, router, firstRun, "term1")

	// second run with Alice improved in Math
	body, _ := json.Marshal(map[string]interface{}{
		"sheets": []domain.SubjectTable{
			{Subject: "Math", Rows: []domain.MarkRow{
				{RawName: "Alice", Mark: ptr(95)},
				{RawName: "Bob", Mark: ptr(70)},
			}},
			{Subject: "Science", Rows: []domain.MarkRow{
				{RawName: "Alice", Mark: ptr(85)},
				{RawName: "Bob", Mark: ptr(75)},
			}},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/analysis", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	var secondResult struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &secondResult))
	saveSnapshot(t, router, secondResult.ID, "term2")

	t.Run("comparison", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/compare?previous=term1&current=term2&metric=total", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var cmp domain.Comparison
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
		assert.Equal(t, "term1", cmp.PreviousLabel)

		byStudent := make(map[string]domain.HistoricalDelta)
		for _, d := range cmp.Deltas {
			byStudent[d.Student] = d
		}
		assert.Equal(t, domain.DeltaImproved, byStudent["Alice"].Status)
		assert.InDelta(t, 15, byStudent["Alice"].Change, 1e-9)
		assert.Equal(t, domain.DeltaUnchanged, byStudent["Bob"].Status)
	})

	t.Run("default metric applied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/compare?previous=term1&current=term2", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var cmp domain.Comparison
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
		assert.Equal(t, domain.MetricTotal, cmp.Metric)
	})

	t.Run("missing labels rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/compare?previous=term1", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("self comparison rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/compare?previous=term1&current=term1", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid metric rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/compare?previous=term1&current=term2&metric=Math", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
