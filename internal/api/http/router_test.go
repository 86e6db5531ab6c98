package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/analysis"
	"github.com/mind-engage/mindengage-alloy/internal/db"
	"github.com/mind-engage/mindengage-alloy/internal/events"
	"github.com/mind-engage/mindengage-alloy/internal/metrics"
	"github.com/mind-engage/mindengage-alloy/internal/monitor"
	"github.com/mind-engage/mindengage-alloy/internal/process"
	"github.com/mind-engage/mindengage-alloy/internal/storage"
	syncx "github.com/mind-engage/mindengage-alloy/internal/sync"
)

type testServer struct {
	h     http.Handler
	store *process.MemoryStore
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	journal := syncx.NewEventRepo(dbh)

	bs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	store := process.NewMemoryStore()
	m := metrics.New()
	svc := monitor.New(store, alloy.DefaultReference(),
		monitor.WithJournal(journal),
		monitor.WithPublisher(events.NewLogPublisher(nil), events.RetryPolicy{MaxAttempts: 1}),
		monitor.WithMetrics(m),
		monitor.WithRecommenderOptions(analysis.WithRand(analysis.RandFunc(func() float64 { return 0 }))),
	)
	h := NewRouter(Deps{
		Store:       store,
		Monitor:     svc,
		Reference:   alloy.DefaultReference(),
		Blobs:       bs,
		Events:      journal,
		Metrics:     m,
		CORSOrigins: []string{"http://localhost:3000"},
		Ready:       dbh.PingContext,
	})
	return testServer{h: h, store: store}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" && !strings.HasSuffix(path, "/import") {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/readyz", "").Code)

	rec := s.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alloy_http_requests_total")
}

func TestReadyz_Failing(t *testing.T) {
	h := NewRouter(Deps{Store: process.NewMemoryStore(), Ready: func(context.Context) error { return errors.New("db down") }})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCompositionsCRUDAndScore(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/api/compositions", `{"name":"Heat 42","grade":"316L","elements":{"Cr":19,"Ni":12}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[process.AlloyComposition](t, rec)
	require.NotEmpty(t, c.ID)

	rec = s.do(t, "GET", "/api/compositions/"+c.ID+"/score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[monitor.ScoreResult](t, rec)
	assert.Equal(t, "316L", res.Grade)
	// Cr 19 is 2/17 off center -> 88.235; Ni in band -> 100
	assert.InDelta(t, 94.1176, res.Score, 1e-3)

	rec = s.do(t, "PUT", "/api/compositions/"+c.ID, `{"name":"Heat 42b","grade":"304","elements":{"Cr":19}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Heat 42b", decode[process.AlloyComposition](t, rec).Name)

	rec = s.do(t, "GET", "/api/compositions/by-grade?grade=304", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]process.AlloyComposition](t, rec), 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/api/compositions/by-grade", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/api/compositions", `{"grade":"316L"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/api/compositions", `{bad`).Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, "DELETE", "/api/compositions/"+c.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/compositions/"+c.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "PUT", "/api/compositions/"+c.ID, `{"name":"x","grade":"304"}`).Code)
}

func TestProcessDataRoutes(t *testing.T) {
	s := newTestServer(t)
	ts := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	rec := s.do(t, "POST", "/api/process-data", `{"furnace_id":"F001","temperature":1550,"timestamp":"`+ts+`","composition":{"Cr":17}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[process.ProcessData](t, rec)

	rec = s.do(t, "GET", "/api/process-data/recent?hours=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]process.ProcessData](t, rec), 1)

	rec = s.do(t, "GET", "/api/process-data/by-furnace?furnace_id=F002", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]process.ProcessData](t, rec))
	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/api/process-data/by-furnace", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/api/process-data?since=yesterday", "").Code)

	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/process-data/"+p.ID, "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, "DELETE", "/api/process-data/"+p.ID, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/api/process-data", `{"temperature":1500}`).Code)
}

func TestImportArchivesAndInserts(t *testing.T) {
	s := newTestServer(t)
	csv := "furnace_id,temperature,Cr\nF001,1500,17\nF002,1510,18\n"

	rec := s.do(t, "POST", "/api/process-data/import", csv)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[map[string]any](t, rec)
	assert.Equal(t, 2.0, out["imported"])
	key, _ := out["key"].(string)
	require.True(t, strings.HasPrefix(key, "imports/"))

	rec = s.do(t, "GET", "/api/assets/"+key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, csv, rec.Body.String())

	rec = s.do(t, "GET", "/api/events?type="+events.KeyDataImported, "")
	require.Equal(t, http.StatusOK, rec.Code)
	evs := decode[[]syncx.Event](t, rec)
	require.Len(t, evs, 1)
	assert.Equal(t, key, evs[0].Key)

	rec = s.do(t, "POST", "/api/process-data/import", "furnace_id,temperature\nF001,hot\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rows, err := s.store.ListProcessData(context.Background(), process.ProcessListOpts{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestInventoryAndAlerts(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/inventory", `{"material_name":"Chromium","material_type":"alloy","quantity":40,"unit":"kg"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	it := decode[process.InventoryItem](t, rec)

	rec = s.do(t, "GET", "/api/inventory/low-stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]process.InventoryItem](t, rec), 1)

	rec = s.do(t, "GET", "/api/inventory/low-stock?threshold=10", "")
	assert.Empty(t, decode[[]process.InventoryItem](t, rec))

	rec = s.do(t, "PUT", "/api/inventory/"+it.ID, `{"material_name":"Chromium","material_type":"alloy","quantity":400,"unit":"kg"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 400.0, decode[process.InventoryItem](t, rec).Quantity)

	rec = s.do(t, "POST", "/api/alerts", `{"title":"Temperature Deviation","message":"hot","severity":"high","source":"F001"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	a := decode[process.Alert](t, rec)

	assert.Len(t, decode[[]process.Alert](t, s.do(t, "GET", "/api/alerts/active", "")), 1)
	assert.Equal(t, http.StatusOK, s.do(t, "POST", "/api/alerts/"+a.ID+"/resolve", "").Code)
	assert.Empty(t, decode[[]process.Alert](t, s.do(t, "GET", "/api/alerts?active=true", "")))
	assert.Len(t, decode[[]process.Alert](t, s.do(t, "GET", "/api/alerts", "")), 1)
	assert.Equal(t, http.StatusNotFound, s.do(t, "POST", "/api/alerts/nope/resolve", "").Code)
}

func TestRecommendations(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/ai/recommendations", `{"target_composition":{"Cr":18,"Ni":10},"current_composition":{"Cr":16.7,"Ni":10}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Recommendations []struct {
			ID            string  `json:"id"`
			AlloyType     string  `json:"alloyType"`
			Quantity      float64 `json:"quantity"`
			Unit          string  `json:"unit"`
			Confidence    float64 `json:"confidence"`
			EstimatedCost float64 `json:"estimatedCost"`
		} `json:"recommendations"`
		AnalysisConfidence string `json:"analysis_confidence"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Recommendations, 1)
	r := out.Recommendations[0]
	assert.Equal(t, "rec_1", r.ID)
	assert.Equal(t, "FeCr 65%", r.AlloyType)
	assert.Equal(t, 2.0, r.Quantity)
	assert.Equal(t, 80.0, r.Confidence)
	assert.Equal(t, 25.0, r.EstimatedCost)
	assert.Equal(t, "high", out.AnalysisConfidence)

	rec = s.do(t, "POST", "/api/ai/recommendations", `{"target_composition":{"Cr":18}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Both target_composition and current_composition are required")
}

func TestQualityAnalysisAndDashboard(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/ai/quality-analysis", "").Code)

	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 10; i++ {
		_, err := s.store.AddProcessData(ctx, process.ProcessData{FurnaceID: "F001", Temperature: 1500, RecordedAt: now.Add(time.Duration(-10+i) * time.Hour)})
		require.NoError(t, err)
	}
	_, err := s.store.AddProcessData(ctx, process.ProcessData{FurnaceID: "F001", Temperature: 1800, RecordedAt: now.Add(-time.Minute), Composition: alloy.Composition{"Cr": 17}})
	require.NoError(t, err)

	rec := s.do(t, "GET", "/api/ai/quality-analysis?hours=24", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[monitor.QualityReport](t, rec)
	assert.Equal(t, 11, rep.TotalSamples)
	assert.Equal(t, 100.0, rep.AverageQualityScore)
	assert.Equal(t, 1, rep.AnomaliesDetected)
	assert.Equal(t, "316L", rep.Grade)

	rec = s.do(t, "GET", "/api/dashboard/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[monitor.Dashboard](t, rec)
	assert.Equal(t, 85.0, d.ProductionEfficiency)
	assert.Equal(t, 1, d.FurnacesOnline)
	assert.Len(t, d.RecentActivity, 5)
}

func TestScoreAndReference(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "POST", "/api/ai/score", `{"composition":{"Cr":17},"grade":"304"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[monitor.ScoreResult](t, rec)
	assert.Equal(t, "304", res.Grade)
	assert.Less(t, res.Score, 100.0)

	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/api/ai/score", `{"composition":{}}`).Code)

	rec = s.do(t, "GET", "/api/reference", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ref := decode[referenceView](t, rec)
	require.Len(t, ref.Grades, 2)
	assert.Len(t, ref.Materials, 6)
}
