package model

// JobState represents the lifecycle state of a job
type JobState string

const (
	// JobStateQueued means the job is admitted but not yet dispatched
	JobStateQueued JobState = "Queued"

	// JobStateResolving means a playlist submission is being expanded
	JobStateResolving JobState = "Resolving"

	// JobStateDownloading means the transfer is in progress
	JobStateDownloading JobState = "Downloading"

	// JobStateProcessing means the transfer finished and post-processing runs
	JobStateProcessing JobState = "Processing"

	// JobStateCompleted means the job finished successfully
	JobStateCompleted JobState = "Completed"

	// JobStateError means the job failed
	JobStateError JobState = "Error"
)

// transitions lists the edges of the job state machine.
var transitions = map[JobState][]JobState{
	JobStateQueued:      {JobStateDownloading, JobStateResolving},
	JobStateResolving:   {JobStateCompleted, JobStateError},
	JobStateDownloading: {JobStateProcessing, JobStateError},
	JobStateProcessing:  {JobStateCompleted, JobStateError},
}

// String returns the string representation of JobState
func (s JobState) String() string {
	return string(s)
}

// IsActive returns true if a worker or resolver currently owns the job
func (s JobState) IsActive() bool {
	return s == JobStateResolving || s == JobStateDownloading || s == JobStateProcessing
}

// IsTerminal returns true if no further transition can occur
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateError
}

// Valid reports whether s is a known state
func (s JobState) Valid() bool {
	switch s {
	case JobStateQueued, JobStateResolving, JobStateDownloading,
		JobStateProcessing, JobStateCompleted, JobStateError:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next follows a defined edge.
// Staying in the same state is always allowed.
func (s JobState) CanTransitionTo(next JobState) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
