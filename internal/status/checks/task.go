package checks

import (
	"context"
	"fmt"
	"time"

	"account_service/internal/status"
)

// longIntervalSeconds separates tasks that are expected to lag a little
// from those whose missed slot is worth an alert. Short-interval tasks
// are overdue between ticks almost by definition.
const longIntervalSeconds = 3600

// TaskChecker flags scheduled tasks that missed their execution slot.
type TaskChecker struct {
	now func() time.Time
}

func NewTaskChecker() *TaskChecker {
	return &TaskChecker{now: time.Now}
}

func (c *TaskChecker) Check(_ context.Context, input status.Input, report *status.Report) error {
	now := c.now().UTC()

	for _, task := range input.ScheduledTasks {
		if task.IsOverdue(now) && task.Interval > longIntervalSeconds {
			report.Warning(fmt.Sprintf("Task %s is overdue", task.Name))
		}
	}

	report.Success("All scheduled tasks are running correctly")

	return nil
}
