package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrResolution        = errors.New("resolution error")
	ErrTransfer          = errors.New("transfer error")
	ErrPostProcess       = errors.New("post-processing error")
	ErrPersistence       = errors.New("persistence error")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrEmptySource       = errors.New("source is empty")
)

// MaxErrorLength bounds the failure text stored on a job
const MaxErrorLength = 120

const truncateSuffix = "..."

// Wrap builds an error whose message carries the operation context while
// tagging it with marker for later classification. marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransfer
	}
	detail := buildDetail(operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the sentinel marker carried by err, or nil
func Kind(err error) error {
	for _, marker := range []error{ErrResolution, ErrPostProcess, ErrTransfer, ErrPersistence} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// Describe renders err as the length-bounded text stored on a failed job.
// Marker prefixes are dropped; they are visible through Kind.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if marker := Kind(err); marker != nil {
		msg = strings.TrimPrefix(msg, marker.Error()+": ")
	}
	return Truncate(strings.TrimSpace(msg), MaxErrorLength)
}

// Truncate shortens s to at most max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - utf8.RuneCountInString(truncateSuffix)
	if keep <= 0 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:keep]) + truncateSuffix
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "job failure"
	}
	return strings.Join(parts, ": ")
}
