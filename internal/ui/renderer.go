package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/ytget/ytqueue/internal/logging"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/progress"
)

// Summary counts the final states of rendered jobs
type Summary struct {
	Completed int
	Failed    int
	Pending   int
	Failures  []model.Job
}

// Renderer writes one line per meaningful job change
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool

	states   map[model.JobID]model.JobState
	messages map[model.JobID]string
	samplers map[model.JobID]*logging.ProgressSampler
	jobs     map[model.JobID]model.Job
	order    []model.JobID
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer, colorize bool) *Renderer {
	return &Renderer{
		out:      out,
		colorize: colorize,
		states:   make(map[model.JobID]model.JobState),
		messages: make(map[model.JobID]string),
		samplers: make(map[model.JobID]*logging.ProgressSampler),
		jobs:     make(map[model.JobID]model.Job),
	}
}

// ShouldColorize reports whether w is an interactive terminal
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Observe handles one event. It is safe to register directly with
// Service.OnJobUpdated.
func (r *Renderer) Observe(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := e.Job
	if e.Removed {
		// resolved placeholders leave the list once their tracks are queued
		if job.State == model.JobStateCompleted {
			r.forget(job.ID)
		}
		return
	}

	if _, seen := r.jobs[job.ID]; !seen {
		r.order = append(r.order, job.ID)
	}
	r.jobs[job.ID] = job

	if prev, ok := r.states[job.ID]; !ok || prev != job.State {
		r.states[job.ID] = job.State
		r.writeState(job)
		return
	}
	if job.Message != "" && job.Message != r.messages[job.ID] {
		r.messages[job.ID] = job.Message
		r.writeLine(job, IconResolve, job.Message, nil)
		return
	}
	if job.State == model.JobStateDownloading && r.sampler(job.ID).ShouldLog(job.Percent, "download") {
		detail := fmt.Sprintf(ProgressLabelFormat, job.Percent)
		if job.Speed != "" {
			detail += MiddleDotSeparator + job.Speed
		}
		r.writeLine(job, IconRunning, detail, nil)
	}
	if job.State == model.JobStateCompleted && job.Error != "" && job.Error != r.messages[job.ID] {
		r.messages[job.ID] = job.Error
		r.writeLine(job, IconError, job.Error, text.Colors{text.FgYellow})
	}
}

// Summary returns counts over every job still tracked
func (r *Renderer) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary
	for _, id := range r.order {
		job, ok := r.jobs[id]
		if !ok {
			continue
		}
		switch job.State {
		case model.JobStateCompleted:
			s.Completed++
		case model.JobStateError:
			s.Failed++
			s.Failures = append(s.Failures, job)
		default:
			s.Pending++
		}
	}
	return s
}

// WriteSummary prints the closing counts and the failed jobs
func (r *Renderer) WriteSummary() Summary {
	s := r.Summary()

	r.mu.Lock()
	defer r.mu.Unlock()
	line := fmt.Sprintf("Done: %d completed, %d failed", s.Completed, s.Failed)
	if s.Pending > 0 {
		line += fmt.Sprintf(", %d not finished", s.Pending)
	}
	fmt.Fprintln(r.out, r.paint(line, summaryColor(s)))
	for _, job := range s.Failures {
		fmt.Fprintf(r.out, "  %s %s: %s\n", r.paint(IconError, text.Colors{text.FgRed}), job.DisplayTitle(), job.Error)
	}
	return s
}

func (r *Renderer) writeState(job model.Job) {
	switch job.State {
	case model.JobStateQueued:
		r.writeLine(job, IconQueued, "queued", nil)
	case model.JobStateResolving:
		detail := "resolving"
		if job.Message != "" {
			r.messages[job.ID] = job.Message
			detail = job.Message
		}
		r.writeLine(job, IconResolve, detail, text.Colors{text.FgCyan})
	case model.JobStateDownloading:
		r.writeLine(job, IconRunning, "downloading to "+job.FolderLabel(), text.Colors{text.FgBlue})
	case model.JobStateProcessing:
		r.writeLine(job, IconRunning, "processing", text.Colors{text.FgBlue})
	case model.JobStateCompleted:
		detail := "done"
		if job.Message != "" {
			detail = job.Message
		} else if job.Destination != "" {
			detail = "saved to " + job.Destination
		}
		r.writeLine(job, IconOK, detail, text.Colors{text.FgGreen})
		if job.Error != "" {
			r.messages[job.ID] = job.Error
			r.writeLine(job, IconError, job.Error, text.Colors{text.FgYellow})
		}
	case model.JobStateError:
		detail := job.Error
		if detail == "" {
			detail = "failed"
		}
		r.writeLine(job, IconError, detail, text.Colors{text.FgRed})
	}
}

func (r *Renderer) writeLine(job model.Job, icon, detail string, colors text.Colors) {
	label := fmt.Sprintf("[%s] %-11s", job.ID, job.State)
	fmt.Fprintf(r.out, "%s %s %s%s%s\n",
		r.paint(label, colors),
		icon,
		job.DisplayTitle(),
		MiddleDotSeparator,
		strings.TrimSpace(detail),
	)
}

func (r *Renderer) paint(s string, colors text.Colors) string {
	if !r.colorize || len(colors) == 0 {
		return s
	}
	return colors.Sprint(s)
}

func (r *Renderer) sampler(id model.JobID) *logging.ProgressSampler {
	s, ok := r.samplers[id]
	if !ok {
		s = logging.NewProgressSampler(ProgressLogBucket)
		r.samplers[id] = s
	}
	return s
}

func (r *Renderer) forget(id model.JobID) {
	delete(r.jobs, id)
	delete(r.states, id)
	delete(r.messages, id)
	delete(r.samplers, id)
}

func summaryColor(s Summary) text.Colors {
	if s.Failed > 0 {
		return text.Colors{text.FgRed}
	}
	return text.Colors{text.FgGreen}
}
