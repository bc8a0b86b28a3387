package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryDateLayout is the persisted timestamp format
const HistoryDateLayout = "2006-01-02 15:04:05"

// HistoryEntry records one completed transfer
type HistoryEntry struct {
	Timestamp time.Time
	Title     string
	URL       string
	Format    Format
	Path      string
}

type historyRecord struct {
	Date   string `json:"date"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// NewHistoryEntry builds an entry for a completed job
func NewHistoryEntry(job Job, at time.Time) HistoryEntry {
	title := job.Title
	if title == "" {
		title = job.Source
	}
	return HistoryEntry{
		Timestamp: at,
		Title:     title,
		URL:       job.Source,
		Format:    job.Format,
		Path:      job.Destination,
	}
}

// MarshalJSON writes the flat {date,title,url,format,path} record
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyRecord{
		Date:   e.Timestamp.Format(HistoryDateLayout),
		Title:  e.Title,
		URL:    e.URL,
		Format: string(e.Format),
		Path:   e.Path,
	})
}

// UnmarshalJSON reads the flat record; the date is interpreted in local time
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var rec historyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	var ts time.Time
	if rec.Date != "" {
		parsed, err := time.ParseInLocation(HistoryDateLayout, rec.Date, time.Local)
		if err != nil {
			return fmt.Errorf("parse history date %q: %w", rec.Date, err)
		}
		ts = parsed
	}
	*e = HistoryEntry{
		Timestamp: ts,
		Title:     rec.Title,
		URL:       rec.URL,
		Format:    Format(rec.Format),
		Path:      rec.Path,
	}
	return nil
}
