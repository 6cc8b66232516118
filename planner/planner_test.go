package planner

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/riskroute/config"
	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/gridgen"
	"github.com/pthm-cable/riskroute/telemetry"
)

// exampleRows is the 5x5 risk grid of the worked examples.
func exampleRows() [][]float64 {
	return [][]float64{
		{0, 1, 1, 3, 6},
		{2, 5, 12, 56, 56},
		{12, 34, 45, 45, 12},
		{10, 24, 30, 30, 10},
		{25, 12, 10, 2, 0},
	}
}

func mustEnv(t testing.TB, rows [][]float64, diagonals bool) *grid.Environment {
	t.Helper()
	env, err := grid.FromRows(rows, diagonals)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return env
}

// checkPath verifies endpoints and that every rasterized step is passable
// and adjacent.
func checkPath(t *testing.T, env *grid.Environment, p grid.Path, start, goal grid.Position) {
	t.Helper()
	if len(p) == 0 {
		t.Fatal("Expected a path, got nil")
	}
	if p.Start() != start || p.Goal() != goal {
		t.Fatalf("path runs %v -> %v, want %v -> %v", p.Start(), p.Goal(), start, goal)
	}
	cells := p.Expand()
	for i, q := range cells {
		if env.Blocked(q) {
			t.Fatalf("path crosses blocked cell %v", q)
		}
		if i > 0 && !cells[i-1].Adjacent(q) {
			t.Fatalf("cells %v and %v are not adjacent", cells[i-1], q)
		}
	}
}

func TestNodeIdentity(t *testing.T) {
	a := Node{Pos: grid.Pos(2, 3), G: 1, F: 4}
	b := Node{Pos: grid.Pos(2, 3), G: 9, Parent: 7}
	c := Node{Pos: grid.Pos(3, 2), G: 1, F: 4}

	if !a.Equal(b) || a.Key() != b.Key() {
		t.Error("Expected nodes at the same cell to be equal regardless of scores")
	}
	if a.Equal(c) {
		t.Error("Expected nodes at different cells to differ")
	}
}

func TestArenaReconstruct(t *testing.T) {
	env := mustEnv(t, exampleRows(), true)
	a := newArena(env, 0)
	s := a.node(grid.Pos(0, 0))
	m := a.node(grid.Pos(1, 1))
	g := a.node(grid.Pos(2, 2))
	a.nodes[m].Parent = s
	a.nodes[g].Parent = m

	if again := a.node(grid.Pos(1, 1)); again != m {
		t.Errorf("Expected existing handle %d, got %d", m, again)
	}
	p := a.path(g)
	if len(p) != 3 || p[0] != grid.Pos(0, 0) || p[2] != grid.Pos(2, 2) {
		t.Errorf("unexpected path %v", p)
	}
}

// TestThetaStraightLine checks that with every edge under the threshold the
// any-angle search collapses the example to one straight segment.
func TestThetaStraightLine(t *testing.T) {
	env := mustEnv(t, exampleRows(), true)
	opts := DefaultThetaOptions()
	opts.RiskThreshold = 1e9

	start, goal := grid.Pos(0, 0), grid.Pos(4, 4)
	res := NewThetaStar(env, opts).FindPath(start, goal)
	checkPath(t, env, res.Path, start, goal)

	if len(res.Path) != 2 {
		t.Errorf("Expected [(0,0) (4,4)], got %v", res.Path)
	}
	if cells := len(res.Path.Expand()); cells > 6 {
		t.Errorf("Expected at most 6 cells, got %d", cells)
	}
}

// TestThetaRiskAvoidance checks the default threshold still reaches the goal
// with clear segments.
func TestThetaRiskAvoidance(t *testing.T) {
	env := mustEnv(t, exampleRows(), true)
	start, goal := grid.Pos(0, 0), grid.Pos(4, 4)
	th := NewThetaStar(env, DefaultThetaOptions())
	res := th.FindPath(start, goal)
	checkPath(t, env, res.Path, start, goal)
	for i := 1; i < len(res.Path); i++ {
		if !env.Clear(res.Path[i-1], res.Path[i]) {
			t.Errorf("segment %v-%v is not clear", res.Path[i-1], res.Path[i])
		}
	}
	if res.Expanded == 0 {
		t.Error("Expected expanded nodes to be counted")
	}
}

// TestAnyAngleNotLongerThanGrid compares any-angle length with the
// 8-connected optimum on an obstacle-free grid.
func TestAnyAngleNotLongerThanGrid(t *testing.T) {
	rows := make([][]float64, 8)
	for i := range rows {
		rows[i] = make([]float64, 8)
	}
	env := mustEnv(t, rows, true)
	th := NewThetaStar(env, DefaultThetaOptions())

	pairs := [][2]grid.Position{
		{grid.Pos(0, 0), grid.Pos(7, 7)},
		{grid.Pos(0, 0), grid.Pos(2, 7)},
		{grid.Pos(7, 1), grid.Pos(0, 4)},
		{grid.Pos(3, 3), grid.Pos(3, 6)},
	}
	for _, pr := range pairs {
		res := th.FindPath(pr[0], pr[1])
		checkPath(t, env, res.Path, pr[0], pr[1])

		dr := math.Abs(float64(pr[0].Row - pr[1].Row))
		dc := math.Abs(float64(pr[0].Col - pr[1].Col))
		octile := math.Max(dr, dc) + (math.Sqrt2-1)*math.Min(dr, dc)
		if l := res.Path.Length(); l > octile+1e-9 {
			t.Errorf("%v->%v: any-angle length %v exceeds grid optimum %v", pr[0], pr[1], l, octile)
		}
	}
}

// TestDijkstraDetour is the obstructed 4-connected example.
func TestDijkstraDetour(t *testing.T) {
	start, goal := grid.Pos(0, 0), grid.Pos(0, 2)
	open := mustEnv(t, exampleRows(), false)

	rows := exampleRows()
	rows[0][1] = -1
	rows[1][1] = -1
	blocked := mustEnv(t, rows, false)

	for _, opts := range []DijkstraOptions{
		{Edge: GoalAgnostic, Seeding: SeedAll},
		{Edge: GoalBiased, Seeding: SeedAll},
		{Edge: GoalAgnostic, Seeding: SeedLazy},
		{Edge: GoalBiased, Seeding: SeedLazy},
	} {
		direct := NewDijkstra(open, opts).FindPath(start, goal)
		checkPath(t, open, direct.Path, start, goal)
		if len(direct.Path) != 3 {
			t.Errorf("%+v: expected direct 3-cell path, got %v", opts, direct.Path)
		}

		detour := NewDijkstra(blocked, opts).FindPath(start, goal)
		checkPath(t, blocked, detour.Path, start, goal)
		if len(detour.Path) <= len(direct.Path) {
			t.Errorf("%+v: expected detour longer than %d cells, got %v", opts, len(direct.Path), detour.Path)
		}
		if detour.Path.Contains(grid.Pos(0, 1)) || detour.Path.Contains(grid.Pos(1, 1)) {
			t.Errorf("%+v: detour passes an obstacle: %v", opts, detour.Path)
		}
	}
}

// dijkstraCost recomputes the cost a Dijkstra path was chosen by.
func dijkstraCost(d *Dijkstra, p grid.Path) float64 {
	var c float64
	for i := 1; i < len(p); i++ {
		c += d.edge(p[i-1], p[i], p.Goal())
	}
	return c
}

// randomRows builds a grid with roughly density obstacles.
func randomRows(rng *rand.Rand, n int, density float64) [][]float64 {
	rows := make([][]float64, n)
	for r := range rows {
		rows[r] = make([]float64, n)
		for c := range rows[r] {
			if rng.Float64() < density {
				rows[r][c] = -1
			} else {
				rows[r][c] = rng.Float64() * 10
			}
		}
	}
	return rows
}

// TestReachabilityAgreement checks uniform-cost and any-angle search agree
// on reachability, and both seeding policies find equally cheap paths.
func TestReachabilityAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	reachable, unreachable := 0, 0
	for trial := 0; trial < 40; trial++ {
		env := mustEnv(t, randomRows(rng, 12, 0.35), true)
		start := grid.Pos(rng.Intn(12), rng.Intn(12))
		goal := grid.Pos(rng.Intn(12), rng.Intn(12))

		seeded := NewDijkstra(env, DijkstraOptions{Edge: GoalBiased, Seeding: SeedAll})
		lazy := NewDijkstra(env, DijkstraOptions{Edge: GoalBiased, Seeding: SeedLazy})
		ds := seeded.FindPath(start, goal)
		dl := lazy.FindPath(start, goal)
		th := NewThetaStar(env, DefaultThetaOptions()).FindPath(start, goal)

		if (ds.Path == nil) != (th.Path == nil) {
			t.Fatalf("trial %d %v->%v: dijkstra reachable=%v, theta reachable=%v",
				trial, start, goal, ds.Path != nil, th.Path != nil)
		}
		if (ds.Path == nil) != (dl.Path == nil) {
			t.Fatalf("trial %d: seeding policies disagree on reachability", trial)
		}
		if ds.Path == nil {
			unreachable++
			continue
		}
		reachable++
		checkPath(t, env, ds.Path, start, goal)
		checkPath(t, env, th.Path, start, goal)
		if a, b := dijkstraCost(seeded, ds.Path), dijkstraCost(lazy, dl.Path); math.Abs(a-b) > 1e-9 {
			t.Errorf("trial %d: seeded cost %v, lazy cost %v", trial, a, b)
		}
	}
	if reachable == 0 || unreachable == 0 {
		t.Logf("coverage: %d reachable, %d unreachable", reachable, unreachable)
	}
}

func TestBlockedEndpointsUnreachable(t *testing.T) {
	rows := exampleRows()
	rows[4][4] = math.NaN()
	env := mustEnv(t, rows, true)

	searchers := []Searcher{
		NewDijkstra(env, DijkstraOptions{}),
		NewThetaStar(env, DefaultThetaOptions()),
	}
	for _, s := range searchers {
		if res := s.FindPath(grid.Pos(0, 0), grid.Pos(4, 4)); res.Path != nil {
			t.Errorf("%s: expected nil path to blocked goal, got %v", s.Name(), res.Path)
		}
		if res := s.FindPath(grid.Pos(2, 2), grid.Pos(2, 2)); len(res.Path) != 1 {
			t.Errorf("%s: expected one-cell path for start == goal, got %v", s.Name(), res.Path)
		}
	}
}

func smallConfig() config.PlannerConfig {
	cfg := config.Default().Planner
	cfg.Genetic.Generations = 20
	cfg.Genetic.Population = 16
	cfg.Genetic.StagnantGenerations = 8
	cfg.Genetic.InitialLength = 6
	cfg.Genetic.Seed = 42
	cfg.Threshold.MaxEvaluations = 12
	return cfg
}

func TestRunAllAlgorithms(t *testing.T) {
	env := mustEnv(t, exampleRows(), true)
	perf := telemetry.NewPerfCollector(10)
	start, goal := grid.Pos(0, 0), grid.Pos(4, 4)

	for _, algo := range Algorithms {
		plan, err := Run(env, Request{Start: start, Goal: goal, Algorithm: algo}, smallConfig(), perf)
		if err != nil {
			t.Fatalf("%s: %v", algo, err)
		}
		if plan.Algorithm != algo {
			t.Errorf("Expected algorithm %s, got %s", algo, plan.Algorithm)
		}
		if !plan.Reachable {
			t.Errorf("%s: expected reachable", algo)
			continue
		}
		checkPath(t, env, plan.Path, start, goal)
		if len(plan.Edges) != len(plan.Path)-1 {
			t.Errorf("%s: %d edges for %d waypoints", algo, len(plan.Edges), len(plan.Path))
		}
		if plan.Length <= 0 || plan.Risk <= 0 {
			t.Errorf("%s: length %v risk %v", algo, plan.Length, plan.Risk)
		}
	}

	if got := perf.Stats().TotalRuns; got != int64(len(Algorithms)) {
		t.Errorf("Expected %d timed runs, got %d", len(Algorithms), got)
	}
}

func TestRunErrors(t *testing.T) {
	env := mustEnv(t, exampleRows(), true)
	cfg := smallConfig()

	if _, err := Run(env, Request{Start: grid.Pos(0, 0), Goal: grid.Pos(5, 0)}, cfg, nil); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
	if _, err := Run(env, Request{Start: grid.Pos(0, 0), Goal: grid.Pos(1, 1), Algorithm: "astar"}, cfg, nil); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("Expected ErrUnknownAlgorithm, got %v", err)
	}

	bad := cfg
	bad.Genetic.Weights = []float64{1}
	if _, err := Run(env, Request{Start: grid.Pos(0, 0), Goal: grid.Pos(1, 1), Algorithm: AlgoGenetic}, bad, nil); !errors.Is(err, ErrObjectiveWeights) {
		t.Errorf("Expected ErrObjectiveWeights, got %v", err)
	}

	plain := cfg
	plain.Heuristic.Kind = "euclidean"
	if _, err := Run(env, Request{Start: grid.Pos(0, 0), Goal: grid.Pos(1, 1), Algorithm: AlgoJump}, plain, nil); !errors.Is(err, ErrNotRiskAware) {
		t.Errorf("Expected ErrNotRiskAware, got %v", err)
	}

	plan, err := Run(env, Request{Start: grid.Pos(2, 2), Goal: grid.Pos(2, 2)}, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Path) != 1 || plan.Risk != 0 {
		t.Errorf("Expected single-cell zero-risk plan, got %v risk %v", plan.Path, plan.Risk)
	}
}

func BenchmarkDijkstra(b *testing.B) {
	cost := gridgen.Generate(256, 256, gridgen.DefaultOptions())
	gridgen.Clear(cost, 2, [2]int{0, 0}, [2]int{255, 255})
	env := grid.NewEnvironment(cost, true)
	env.BuildGraph()
	d := NewDijkstra(env, DijkstraOptions{Edge: GoalBiased})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.FindPath(grid.Pos(0, 0), grid.Pos(255, 255))
	}
}

func BenchmarkThetaStar(b *testing.B) {
	cost := gridgen.Generate(256, 256, gridgen.DefaultOptions())
	gridgen.Clear(cost, 2, [2]int{0, 0}, [2]int{255, 255})
	env := grid.NewEnvironment(cost, true)
	th := NewThetaStar(env, DefaultThetaOptions())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		th.FindPath(grid.Pos(0, 0), grid.Pos(255, 255))
	}
}
