package model

// RunSummary aggregates the results of a task file run.
type RunSummary struct {
	Results []Result `json:"results" yaml:"results"`
	Total   int      `json:"total" yaml:"total"`
	Changed int      `json:"changed" yaml:"changed"`
	OK      int      `json:"ok" yaml:"ok"`
	Failed  int      `json:"failed" yaml:"failed"`
	Skipped int      `json:"skipped" yaml:"skipped"`
}

// NewRunSummary prepares a summary for total tasks.
func NewRunSummary(total int) *RunSummary {
	return &RunSummary{Total: total, Results: make([]Result, 0, total)}
}

// Add records one task result.
func (s *RunSummary) Add(r Result) {
	s.Results = append(s.Results, r)
	switch r.State() {
	case StatusFailed:
		s.Failed++
	case StatusChanged:
		s.Changed++
	default:
		s.OK++
	}
}

// Skip records a task that did not run.
func (s *RunSummary) Skip(task, module string) {
	s.Results = append(s.Results, Result{Task: task, Module: module, Status: StatusSkipped})
	s.Skipped++
}

// Succeeded reports whether no task failed.
func (s *RunSummary) Succeeded() bool {
	return s.Failed == 0
}

// ExitCode is 0 when every task succeeded and 1 otherwise.
func (s *RunSummary) ExitCode() int {
	if s.Succeeded() {
		return 0
	}
	return 1
}
