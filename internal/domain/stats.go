package domain

import "time"

// SyncStats summarizes one indexing cycle for one project. Never persisted;
// logged and exported as metrics only.
type SyncStats struct {
	Organization string
	Project      string

	PullRequestsIndexed int
	WorkItemsIndexed    int
	DocumentsDeleted    int
	Errors              []string

	Duration time.Duration
}

// AddError records a per-document or per-stage failure without aborting the cycle.
func (s *SyncStats) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}
