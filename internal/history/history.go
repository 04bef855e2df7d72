// Package history keeps an append-only log of substitution runs so past test
// outputs can be revisited after the live state has been restored.
package history

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryDir is the subdirectory name within .plens/ for the run log.
const HistoryDir = "history"

// RunRecord describes one substitution run.
type RunRecord struct {
	RunID        string    `json:"run_id"`
	SnapshotID   int64     `json:"snapshot_id,omitempty"`
	SnapshotName string    `json:"snapshot_name"`
	Input        string    `json:"input,omitempty"`
	Output       string    `json:"output"`
	Failed       bool      `json:"failed"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMS   int64     `json:"duration_ms"`
}

func runsPath(storeRoot string) string {
	return filepath.Join(storeRoot, HistoryDir, "runs.jsonl")
}

// Record stores one run, assigning a run id and derived fields.
func Record(storeRoot string, rec *RunRecord) error {
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	rec.DurationMS = rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	// Error strings from the runner start with a fixed prefix; mark them so
	// listings can distinguish failures without parsing output.
	for _, prefix := range []string{"Generation failed:", "Substitution failed:", "Substitution not started:"} {
		if strings.HasPrefix(rec.Output, prefix) {
			rec.Failed = true
			break
		}
	}
	return appendRecord(runsPath(storeRoot), rec)
}

// List retrieves the most recent runs, newest first. A non-positive limit
// returns everything.
func List(storeRoot string, limit int) ([]RunRecord, error) {
	records, err := readRecords[RunRecord](runsPath(storeRoot))
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].EndedAt.After(records[j].EndedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
