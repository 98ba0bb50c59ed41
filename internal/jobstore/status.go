package jobstore

import "fmt"

// Status is the lifecycle state of a generation job
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// validTransitions is the only path a job may take through its lifecycle
var validTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// Valid reports whether s is a known status value
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// checkTransition returns an error describing a disallowed transition
func checkTransition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("unknown job status %q", to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid job status transition %s -> %s", from, to)
	}
	return nil
}
