package checks

import (
	"context"
	"testing"
	"time"

	"account_service/internal/models"
	"account_service/internal/status"
)

func fixedChecker(now time.Time) *TaskChecker {
	return &TaskChecker{now: func() time.Time { return now }}
}

func TestOverdueLongIntervalTaskWarns(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	input := status.Input{
		ScheduledTasks: []models.ScheduledTask{
			{Name: "nightly-report", Interval: 7200, NextExecutionTime: now.Add(-time.Hour)},
		},
	}

	report := &status.Report{}
	if err := fixedChecker(now).Check(context.Background(), input, report); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if !report.HasWarnings() {
		t.Fatal("expected a warning for an overdue long-interval task")
	}
	if got := report.Findings[0].Message; got != "Task nightly-report is overdue" {
		t.Fatalf("unexpected warning message: %q", got)
	}
}

func TestOverdueShortIntervalTaskDoesNotWarn(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	input := status.Input{
		ScheduledTasks: []models.ScheduledTask{
			{Name: "session-sweep", Interval: 1800, NextExecutionTime: now.Add(-time.Hour)},
		},
	}

	report := &status.Report{}
	if err := fixedChecker(now).Check(context.Background(), input, report); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if report.HasWarnings() {
		t.Fatal("short-interval tasks must not warn, even when overdue")
	}
}

func TestFutureTaskDoesNotWarn(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	input := status.Input{
		ScheduledTasks: []models.ScheduledTask{
			{Name: "backup", Interval: 86400, NextExecutionTime: now.Add(2 * time.Hour)},
		},
	}

	report := &status.Report{}
	if err := fixedChecker(now).Check(context.Background(), input, report); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if report.HasWarnings() {
		t.Fatal("a task scheduled in the future must not warn")
	}
}

func TestCheckAlwaysAppendsSuccessLine(t *testing.T) {
	report := &status.Report{}
	if err := fixedChecker(time.Now()).Check(context.Background(), status.Input{}, report); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if len(report.Findings) != 1 {
		t.Fatalf("expected exactly one finding, got %d", len(report.Findings))
	}
	if report.Findings[0].Level != status.LevelSuccess {
		t.Fatalf("expected a success finding, got %q", report.Findings[0].Level)
	}
}
