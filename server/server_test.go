package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/riskroute/config"
	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/telemetry"
)

var exampleRows = [][]float64{
	{0, 1, 1, 3, 6},
	{2, 5, 12, 56, 56},
	{12, 34, 45, 45, 12},
	{10, 24, 30, 30, 10},
	{25, 12, 10, 2, 0},
}

func newTestServer(t *testing.T, withGrid bool, out *telemetry.OutputManager) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Planner.Genetic.Generations = 20
	cfg.Planner.Genetic.Population = 20
	cfg.Planner.Genetic.InitialLength = 8
	cfg.Planner.Genetic.Seed = 1
	cfg.Server.MaxGridCells = 100

	var env *grid.Environment
	if withGrid {
		var err error
		env, err = grid.FromRows(exampleRows, true)
		if err != nil {
			t.Fatal(err)
		}
	}
	return New(cfg, env, telemetry.NewPerfCollector(10), out)
}

func post(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/plan", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, true, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["grid_loaded"] != true {
		t.Errorf("Unexpected health body: %v", body)
	}
	if body["rows"] != float64(5) {
		t.Errorf("Expected rows 5, got %v", body["rows"])
	}
}

func TestPlanDefaultGrid(t *testing.T) {
	s := newTestServer(t, true, nil)
	rec := post(t, s, map[string]any{
		"start":     grid.Pos(0, 0),
		"goal":      grid.Pos(4, 4),
		"algorithm": "dijkstra",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Reachable {
		t.Fatal("Expected a reachable plan")
	}
	if resp.RunID == "" {
		t.Error("Expected a run id")
	}
	if resp.Path.Start() != grid.Pos(0, 0) || resp.Path.Goal() != grid.Pos(4, 4) {
		t.Errorf("Path endpoints wrong: %v", resp.Path)
	}
	if len(resp.Edges) != len(resp.Path)-1 {
		t.Errorf("Expected %d edges, got %d", len(resp.Path)-1, len(resp.Edges))
	}
}

func TestPlanEveryAlgorithmInline(t *testing.T) {
	s := newTestServer(t, false, nil)
	for _, algo := range []string{"dijkstra", "theta", "jps", "genetic", "threshold"} {
		rec := post(t, s, map[string]any{
			"cost":      exampleRows,
			"start":     grid.Pos(0, 0),
			"goal":      grid.Pos(4, 4),
			"algorithm": algo,
		})
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", algo, rec.Code, rec.Body)
			continue
		}
		var resp PlanResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		if resp.Algorithm == "" {
			t.Errorf("%s: empty algorithm in response", algo)
		}
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/perf", nil))
	var perf telemetry.PerfStatsCSV
	if err := json.NewDecoder(rec.Body).Decode(&perf); err != nil {
		t.Fatal(err)
	}
	if perf.TotalRuns != 5 {
		t.Errorf("Expected 5 recorded runs, got %d", perf.TotalRuns)
	}
}

// TestPlannerOverride checks a partial planner object only replaces the
// fields it names and does not leak into the server config.
func TestPlannerOverride(t *testing.T) {
	s := newTestServer(t, true, nil)
	rec := post(t, s, map[string]any{
		"start":   grid.Pos(0, 0),
		"goal":    grid.Pos(4, 4),
		"planner": map[string]any{"algorithm": "dijkstra", "dijkstra": map[string]any{"seeding": "lazy"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Algorithm, "dijkstra") {
		t.Errorf("Expected dijkstra, got %q", resp.Algorithm)
	}
	if s.cfg.Planner.Algorithm != "theta" || s.cfg.Planner.Dijkstra.Seeding != "all" {
		t.Error("Override leaked into server config")
	}
}

func TestPlanUnreachable(t *testing.T) {
	s := newTestServer(t, false, nil)
	rec := post(t, s, map[string]any{
		"cost":      [][]float64{{0, -1, 0}, {-1, -1, 0}, {0, 0, 0}},
		"diagonals": false,
		"start":     grid.Pos(0, 0),
		"goal":      grid.Pos(2, 2),
		"algorithm": "dijkstra",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reachable || resp.Path != nil {
		t.Errorf("Expected unreachable, got %v", resp.Path)
	}
}

func TestPlanBadRequests(t *testing.T) {
	big := make([][]float64, 11)
	for i := range big {
		big[i] = make([]float64, 10)
	}

	tests := []struct {
		name     string
		withGrid bool
		body     any
	}{
		{"no grid", false, map[string]any{"start": grid.Pos(0, 0), "goal": grid.Pos(1, 1)}},
		{"out of bounds", true, map[string]any{"start": grid.Pos(0, 0), "goal": grid.Pos(9, 9)}},
		{"unknown algorithm", true, map[string]any{"start": grid.Pos(0, 0), "goal": grid.Pos(1, 1), "algorithm": "bogus"}},
		{"ragged grid", false, map[string]any{"cost": [][]float64{{1, 2}, {3}}, "start": grid.Pos(0, 0), "goal": grid.Pos(0, 1)}},
		{"grid too large", false, map[string]any{"cost": big, "start": grid.Pos(0, 0), "goal": grid.Pos(1, 1)}},
		{"bad planner", true, map[string]any{"start": grid.Pos(0, 0), "goal": grid.Pos(1, 1), "planner": "nope"}},
	}
	for _, tt := range tests {
		s := newTestServer(t, tt.withGrid, nil)
		rec := post(t, s, tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, rec.Code)
		}
	}

	s := newTestServer(t, true, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: expected 400, got %d", rec.Code)
	}
}

func TestPlanWritesOutput(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, true, out)
	rec := post(t, s, map[string]any{"start": grid.Pos(0, 0), "goal": grid.Pos(4, 4)})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, telemetry.FileRuns))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	runs, err := telemetry.ReadRuns(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || !runs[0].Reachable {
		t.Errorf("Expected one reachable run, got %+v", runs)
	}
}
