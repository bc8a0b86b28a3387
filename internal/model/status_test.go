package model

import "testing"

func TestJobState_IsActive(t *testing.T) {
	tests := []struct {
		state    JobState
		expected bool
	}{
		{JobStateQueued, false},
		{JobStateResolving, true},
		{JobStateDownloading, true},
		{JobStateProcessing, true},
		{JobStateCompleted, false},
		{JobStateError, false},
	}

	for _, test := range tests {
		result := test.state.IsActive()
		if result != test.expected {
			t.Errorf("JobState(%s).IsActive() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestJobState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		expected bool
	}{
		{JobStateQueued, false},
		{JobStateResolving, false},
		{JobStateDownloading, false},
		{JobStateProcessing, false},
		{JobStateCompleted, true},
		{JobStateError, true},
	}

	for _, test := range tests {
		result := test.state.IsTerminal()
		if result != test.expected {
			t.Errorf("JobState(%s).IsTerminal() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestJobState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     JobState
		to       JobState
		expected bool
	}{
		{JobStateQueued, JobStateDownloading, true},
		{JobStateQueued, JobStateResolving, true},
		{JobStateQueued, JobStateProcessing, false},
		{JobStateQueued, JobStateCompleted, false},
		{JobStateResolving, JobStateCompleted, true},
		{JobStateResolving, JobStateError, true},
		{JobStateResolving, JobStateDownloading, false},
		{JobStateDownloading, JobStateProcessing, true},
		{JobStateDownloading, JobStateError, true},
		{JobStateDownloading, JobStateCompleted, false},
		{JobStateProcessing, JobStateCompleted, true},
		{JobStateProcessing, JobStateError, true},
		{JobStateProcessing, JobStateDownloading, false},
		{JobStateCompleted, JobStateError, false},
		{JobStateCompleted, JobStateQueued, false},
		{JobStateError, JobStateQueued, false},
		{JobStateError, JobStateCompleted, false},
		{JobStateDownloading, JobStateDownloading, true},
		{JobStateCompleted, JobStateCompleted, true},
	}

	for _, test := range tests {
		result := test.from.CanTransitionTo(test.to)
		if result != test.expected {
			t.Errorf("%s -> %s allowed = %v, expected %v", test.from, test.to, result, test.expected)
		}
	}
}

func TestJobState_String(t *testing.T) {
	state := JobStateDownloading
	expected := "Downloading"
	result := state.String()

	if result != expected {
		t.Errorf("JobState.String() = %s, expected %s", result, expected)
	}
}

func TestJobState_Valid(t *testing.T) {
	if !JobStateProcessing.Valid() {
		t.Error("Expected Processing to be valid")
	}
	if JobState("Paused").Valid() {
		t.Error("Expected unknown state to be invalid")
	}
}
