package planner

import (
	"github.com/pthm-cable/riskroute/telemetry"
)

// Record flattens a plan into a runs.csv row.
func (p *Plan) Record(runID string, req Request) telemetry.RunRecord {
	return telemetry.RunRecord{
		RunID:      runID,
		Algorithm:  p.Algorithm,
		StartRow:   req.Start.Row,
		StartCol:   req.Start.Col,
		GoalRow:    req.Goal.Row,
		GoalCol:    req.Goal.Col,
		Reachable:  p.Reachable,
		Expanded:   p.Expanded,
		Threshold:  p.Threshold,
		DurationUS: p.Duration.Microseconds(),
		PathStats:  p.Stats,
	}
}

// WritePlan writes a plan's summary, waypoints, edges and generation
// history. A nil OutputManager discards them.
func WritePlan(out *telemetry.OutputManager, runID string, req Request, p *Plan) error {
	if out == nil {
		return nil
	}
	if err := out.WriteRun(p.Record(runID, req)); err != nil {
		return err
	}
	if err := out.WritePath(runID, p.Path); err != nil {
		return err
	}
	if err := out.WriteEdges(runID, p.Edges); err != nil {
		return err
	}
	return out.WriteGenerations(runID, p.Generations)
}
