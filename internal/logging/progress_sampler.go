package logging

import (
	"math"
	"strings"
)

// DefaultProgressBucket is the percent step between logged progress lines
const DefaultProgressBucket = 10

// ProgressSampler thins per-chunk transfer progress down to one line per
// step. It is not safe for concurrent use; each job owns its own sampler.
type ProgressSampler struct {
	step  float64
	stage string
	armed bool
	next  float64
}

// NewProgressSampler returns a sampler that logs every step percent.
// A non-positive step falls back to DefaultProgressBucket.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = DefaultProgressBucket
	}
	return &ProgressSampler{step: step}
}

// ShouldLog reports whether percent in stage deserves a log line. The first
// known percent of a stage always logs, then one line per step crossed.
// Negative percent is unknown: only a new stage logs it. A nil sampler logs
// everything.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}

	log := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.stage {
		s.stage = stage
		s.armed = false
		log = true
	}
	if percent < 0 {
		return log
	}
	if s.armed && percent < s.next {
		return log
	}

	s.armed = true
	s.next = (math.Floor(percent/s.step) + 1) * s.step
	if percent >= 100 {
		s.next = math.Inf(1)
	}
	return true
}

// Reset forgets the current stage so the next call logs
func (s *ProgressSampler) Reset() {
	if s != nil {
		*s = ProgressSampler{step: s.step}
	}
}
