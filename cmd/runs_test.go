package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/cu-eval/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:           "abc12345-6789-0000-0000-000000000000",
			Label:        "run_002",
			AnalyzerID:   "invoice",
			Mode:         "pro",
			Status:       model.RunStatusComplete,
			Documents:    3,
			FieldsTested: 12,
			Accuracy:     91.67,
			TotalCost:    0.0421,
			CreatedAt:    now,
			UpdatedAt:    now.Add(2 * time.Minute),
		},
		{
			ID:         "def12345-6789-0000-0000-000000000000",
			Label:      "run_001",
			AnalyzerID: "a-very-long-analyzer-identifier",
			Mode:       "standard",
			Status:     model.RunStatusRunning,
			CreatedAt:  now.Add(-1 * time.Hour),
			UpdatedAt:  now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "ANALYZER")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "run_002")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "91.67%")
	assert.Contains(t, output, "$0.0421")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "a-very-long-analyzer-...")
	assert.Contains(t, output, "running")
}

func TestRunsStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	runs := []model.Run{
		{
			ID:           "1",
			Status:       model.RunStatusComplete,
			FieldsTested: 10,
			Accuracy:     80,
			TotalCost:    0.5,
			CreatedAt:    now,
			UpdatedAt:    now.Add(2 * time.Minute),
		},
		{
			ID:           "2",
			Status:       model.RunStatusComplete,
			FieldsTested: 10,
			Accuracy:     100,
			TotalCost:    0.25,
			CreatedAt:    now.Add(5 * time.Minute),
			UpdatedAt:    now.Add(8 * time.Minute),
		},
		{
			// No ground truth: excluded from the accuracy average.
			ID:        "3",
			Status:    model.RunStatusComplete,
			TotalCost: 0.25,
			CreatedAt: now.Add(9 * time.Minute),
			UpdatedAt: now.Add(11 * time.Minute),
		},
		{
			ID:        "4",
			Status:    model.RunStatusFailed,
			Error:     "analyze a.pdf: timed out",
			CreatedAt: now.Add(10 * time.Minute),
			UpdatedAt: now.Add(10*time.Minute + 30*time.Second),
		},
		{
			ID:        "5",
			Status:    model.RunStatusRunning,
			CreatedAt: now.Add(15 * time.Minute),
			UpdatedAt: now.Add(15 * time.Minute),
		},
	}

	stats := computeRunStats(runs)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Complete)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Running)
	// Average duration of the 3 complete runs: (120s + 180s + 120s) / 3 = 140s.
	assert.InDelta(t, 140.0, stats.AvgDurSecs, 0.1)
	assert.InDelta(t, 90.0, stats.AvgAccuracy, 0.001)
	assert.InDelta(t, 1.0, stats.TotalCost, 0.0001)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Complete:")
	assert.Contains(t, output, "Failed:")
	assert.Contains(t, output, "Running:")
	assert.Contains(t, output, "140.0s")
	assert.Contains(t, output, "90.00%")
	assert.Contains(t, output, "$1.0000")
}

func TestRunsStats_Empty(t *testing.T) {
	stats := computeRunStats(nil)
	assert.Equal(t, runStats{}, stats)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)
	assert.NotContains(t, buf.String(), "Avg duration")
	assert.NotContains(t, buf.String(), "Avg accuracy")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
