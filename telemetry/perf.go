package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// Phase names for one planning run.
const (
	PhaseValidate = "validate"
	PhaseSetup    = "setup"
	PhaseSearch   = "search"
	PhaseReport   = "report"
)

// phases in report order.
var phases = []string{PhaseValidate, PhaseSetup, PhaseSearch, PhaseReport}

// PerfSample holds timing data for a single planning run.
type PerfSample struct {
	RunDuration time.Duration
	Phases      map[string]time.Duration
}

// PerfCollector tracks planning run timings over a rolling window.
// It is safe for concurrent use; each run times itself with a RunTimer.
type PerfCollector struct {
	mu          sync.Mutex
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int
	totalRuns   int64
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of runs to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
	}
}

// RunTimer times the phases of one run. A nil RunTimer ignores all calls,
// so callers need not check whether perf collection is enabled.
type RunTimer struct {
	p          *PerfCollector
	runStart   time.Time
	phaseStart time.Time
	lastPhase  string
	phases     map[string]time.Duration
}

// Begin starts timing a run. Returns nil on a nil collector.
func (p *PerfCollector) Begin() *RunTimer {
	if p == nil {
		return nil
	}
	now := time.Now()
	return &RunTimer{
		p:          p,
		runStart:   now,
		phaseStart: now,
		phases:     make(map[string]time.Duration),
	}
}

// Phase ends the current phase, if any, and starts the named one.
func (t *RunTimer) Phase(phase string) {
	if t == nil {
		return
	}
	now := time.Now()
	if t.lastPhase != "" {
		t.phases[t.lastPhase] += now.Sub(t.phaseStart)
	}
	t.phaseStart = now
	t.lastPhase = phase
}

// End finishes the run, records the sample and returns the run duration.
func (t *RunTimer) End() time.Duration {
	if t == nil {
		return 0
	}
	now := time.Now()
	if t.lastPhase != "" {
		t.phases[t.lastPhase] += now.Sub(t.phaseStart)
		t.lastPhase = ""
	}
	d := now.Sub(t.runStart)
	t.p.record(PerfSample{RunDuration: d, Phases: t.phases})
	return d
}

func (p *PerfCollector) record(s PerfSample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples[p.writeIndex] = s
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.totalRuns++
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Run timing
	AvgRunDuration time.Duration
	MinRunDuration time.Duration
	MaxRunDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total run time
	PhasePct map[string]float64

	// Throughput
	RunsPerSecond float64
	TotalRuns     int64
	WindowRuns    int
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:  make(map[string]time.Duration),
			PhasePct:  make(map[string]float64),
			TotalRuns: p.totalRuns,
		}
	}

	var totalRun time.Duration
	var minRun, maxRun time.Duration
	phaseSum := make(map[string]time.Duration)

	// Iterate over valid samples
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalRun += s.RunDuration

		if i == 0 || s.RunDuration < minRun {
			minRun = s.RunDuration
		}
		if s.RunDuration > maxRun {
			maxRun = s.RunDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgRun := totalRun / time.Duration(p.sampleCount)

	// Calculate phase averages and percentages
	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgRun > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgRun) * 100
		}
	}

	var runsPerSec float64
	if avgRun > 0 {
		runsPerSec = float64(time.Second) / float64(avgRun)
	}

	return PerfStats{
		AvgRunDuration: avgRun,
		MinRunDuration: minRun,
		MaxRunDuration: maxRun,
		PhaseAvg:       phaseAvg,
		PhasePct:       phasePct,
		RunsPerSecond:  runsPerSec,
		TotalRuns:      p.totalRuns,
		WindowRuns:     p.sampleCount,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_run_us", s.AvgRunDuration.Microseconds(),
		"min_run_us", s.MinRunDuration.Microseconds(),
		"max_run_us", s.MaxRunDuration.Microseconds(),
		"runs", s.TotalRuns,
	}

	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_run_us", s.AvgRunDuration.Microseconds()),
		slog.Int64("min_run_us", s.MinRunDuration.Microseconds()),
		slog.Int64("max_run_us", s.MaxRunDuration.Microseconds()),
		slog.Float64("runs_per_sec", s.RunsPerSecond),
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV and JSON export of performance stats.
type PerfStatsCSV struct {
	TotalRuns   int64   `csv:"total_runs" json:"total_runs"`
	WindowRuns  int     `csv:"window_runs" json:"window_runs"`
	AvgRunUS    int64   `csv:"avg_run_us" json:"avg_run_us"`
	MinRunUS    int64   `csv:"min_run_us" json:"min_run_us"`
	MaxRunUS    int64   `csv:"max_run_us" json:"max_run_us"`
	RunsPerSec  float64 `csv:"runs_per_sec" json:"runs_per_sec"`
	ValidatePct float64 `csv:"validate_pct" json:"validate_pct"`
	SetupPct    float64 `csv:"setup_pct" json:"setup_pct"`
	SearchPct   float64 `csv:"search_pct" json:"search_pct"`
	ReportPct   float64 `csv:"report_pct" json:"report_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		TotalRuns:   s.TotalRuns,
		WindowRuns:  s.WindowRuns,
		AvgRunUS:    s.AvgRunDuration.Microseconds(),
		MinRunUS:    s.MinRunDuration.Microseconds(),
		MaxRunUS:    s.MaxRunDuration.Microseconds(),
		RunsPerSec:  s.RunsPerSecond,
		ValidatePct: s.PhasePct[PhaseValidate],
		SetupPct:    s.PhasePct[PhaseSetup],
		SearchPct:   s.PhasePct[PhaseSearch],
		ReportPct:   s.PhasePct[PhaseReport],
	}
}
