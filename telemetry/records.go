package telemetry

// RunRecord is one row of runs.csv.
type RunRecord struct {
	RunID      string  `csv:"run_id" json:"run_id"`
	Algorithm  string  `csv:"algorithm" json:"algorithm"`
	StartRow   int     `csv:"start_row" json:"start_row"`
	StartCol   int     `csv:"start_col" json:"start_col"`
	GoalRow    int     `csv:"goal_row" json:"goal_row"`
	GoalCol    int     `csv:"goal_col" json:"goal_col"`
	Reachable  bool    `csv:"reachable" json:"reachable"`
	Expanded   int     `csv:"expanded" json:"expanded"`
	Threshold  float64 `csv:"threshold" json:"threshold"`
	DurationUS int64   `csv:"duration_us" json:"duration_us"`
	PathStats
}

// WaypointRecord is one row of path.csv.
type WaypointRecord struct {
	RunID string `csv:"run_id"`
	Index int    `csv:"index"`
	Row   int    `csv:"row"`
	Col   int    `csv:"col"`
}

// EdgeRecord is one row of edges.csv.
type EdgeRecord struct {
	RunID    string  `csv:"run_id"`
	Index    int     `csv:"edge"`
	FromRow  int     `csv:"from_row"`
	FromCol  int     `csv:"from_col"`
	ToRow    int     `csv:"to_row"`
	ToCol    int     `csv:"to_col"`
	Distance float64 `csv:"distance"`
	Risk     float64 `csv:"risk"`
}

// GenerationStats is the fitness summary of one genetic generation.
// Lower fitness is better.
type GenerationStats struct {
	RunID      string  `csv:"run_id" json:"-"`
	Generation int     `csv:"generation" json:"generation"`
	Best       float64 `csv:"best" json:"best"`
	Mean       float64 `csv:"mean" json:"mean"`
	Worst      float64 `csv:"worst" json:"worst"`
	BestSoFar  float64 `csv:"best_so_far" json:"best_so_far"`
}
