// Package status runs registered health checkers and collects their
// findings into a single report.
package status

import (
	"context"

	"account_service/internal/models"
)

const (
	LevelSuccess = "success"
	LevelWarning = "warning"
)

// Input carries the data checkers inspect. Checkers are pure: they read
// the input and write findings, nothing else.
type Input struct {
	ScheduledTasks []models.ScheduledTask
}

type Finding struct {
	Check   string `json:"check"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Report accumulates findings from every checker in a run.
type Report struct {
	current  string
	Findings []Finding `json:"findings"`
}

func (r *Report) Warning(msg string) {
	r.Findings = append(r.Findings, Finding{Check: r.current, Level: LevelWarning, Message: msg})
}

func (r *Report) Success(msg string) {
	r.Findings = append(r.Findings, Finding{Check: r.current, Level: LevelSuccess, Message: msg})
}

// HasWarnings reports whether any checker flagged a problem.
func (r *Report) HasWarnings() bool {
	for _, f := range r.Findings {
		if f.Level == LevelWarning {
			return true
		}
	}

	return false
}

type Checker interface {
	Check(ctx context.Context, input Input, report *Report) error
}

// Registry is an ordered set of named checkers.
type Registry struct {
	names    []string
	checkers map[string]Checker
}

func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
	}
}

func (r *Registry) Register(name string, c Checker) {
	if _, ok := r.checkers[name]; !ok {
		r.names = append(r.names, name)
	}

	r.checkers[name] = c
}

// Run executes every registered checker in registration order and returns
// the combined report. The first checker error aborts the run.
func (r *Registry) Run(ctx context.Context, input Input) (*Report, error) {
	report := &Report{}

	for _, name := range r.names {
		report.current = name

		if err := r.checkers[name].Check(ctx, input, report); err != nil {
			return nil, err
		}
	}

	report.current = ""

	return report, nil
}
