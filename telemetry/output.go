package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/riskroute/config"
	"github.com/pthm-cable/riskroute/grid"
)

// Output file names.
const (
	FileRuns        = "runs.csv"
	FilePath        = "path.csv"
	FileEdges       = "edges.csv"
	FileGenerations = "generations.csv"
	FilePerf        = "perf.csv"
	FileConfig      = "config.yaml"
)

// csvFile is an output file whose header is written with the first record.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func write[T any](c *csvFile, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
// A nil OutputManager discards everything. Writes are serialised, so
// concurrent runs may share one manager.
type OutputManager struct {
	dir string

	mu          sync.Mutex
	runs        csvFile
	path        csvFile
	edges       csvFile
	generations csvFile
	perf        csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  *csvFile
	}{
		{FileRuns, &om.runs},
		{FilePath, &om.path},
		{FileEdges, &om.edges},
		{FileGenerations, &om.generations},
		{FilePerf, &om.perf},
	}
	for _, file := range files {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", file.name, err)
		}
		file.dst.f = f
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, FileConfig))
}

// WriteRun writes a run summary to runs.csv.
func (om *OutputManager) WriteRun(r RunRecord) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := write(&om.runs, []RunRecord{r}); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	return nil
}

// WritePath writes the waypoints of a run to path.csv.
func (om *OutputManager) WritePath(runID string, p grid.Path) error {
	if om == nil {
		return nil
	}
	records := make([]WaypointRecord, len(p))
	for i, q := range p {
		records[i] = WaypointRecord{RunID: runID, Index: i, Row: q.Row, Col: q.Col}
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := write(&om.path, records); err != nil {
		return fmt.Errorf("writing path: %w", err)
	}
	return nil
}

// WriteEdges writes the per-edge breakdown of a run to edges.csv.
func (om *OutputManager) WriteEdges(runID string, edges []grid.EdgeCost) error {
	if om == nil {
		return nil
	}
	records := make([]EdgeRecord, len(edges))
	for i, e := range edges {
		records[i] = EdgeRecord{
			RunID:    runID,
			Index:    e.Index,
			FromRow:  e.From.Row,
			FromCol:  e.From.Col,
			ToRow:    e.To.Row,
			ToCol:    e.To.Col,
			Distance: e.Distance,
			Risk:     e.Risk,
		}
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := write(&om.edges, records); err != nil {
		return fmt.Errorf("writing edges: %w", err)
	}
	return nil
}

// WriteGenerations writes genetic planner history to generations.csv.
func (om *OutputManager) WriteGenerations(runID string, gens []GenerationStats) error {
	if om == nil {
		return nil
	}
	records := make([]GenerationStats, len(gens))
	for i, g := range gens {
		g.RunID = runID
		records[i] = g
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := write(&om.generations, records); err != nil {
		return fmt.Errorf("writing generations: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := write(&om.perf, []PerfStatsCSV{stats.ToCSV()}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	var firstErr error
	for _, c := range []*csvFile{&om.runs, &om.path, &om.edges, &om.generations, &om.perf} {
		if c.f == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.f = nil
	}
	return firstErr
}

// ReadRuns parses a runs.csv stream.
func ReadRuns(r io.Reader) ([]RunRecord, error) {
	var runs []RunRecord
	if err := gocsv.Unmarshal(r, &runs); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	return runs, nil
}
