package fetch

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Line markers emitted through --progress-template and --print
const (
	markerProgress = "ytq-progress "
	markerPost     = "ytq-post "
	markerTitle    = "ytq-title "
	markerPath     = "ytq-path "
)

const (
	progressTemplate = "download:" + markerProgress +
		"%(progress.status)s|%(progress.downloaded_bytes)s|%(progress.total_bytes)s|%(progress.total_bytes_estimate)s|%(progress.speed)s"
	postTemplate  = "postprocess:" + markerPost + "%(progress.status)s|%(progress.postprocessor)s"
	titleTemplate = "after_move:" + markerTitle + "%(title)s"
	pathTemplate  = "after_move:" + markerPath + "%(filepath)s"
)

const notAvailable = "NA"

type lineKind int

const (
	lineOther lineKind = iota
	lineProgress
	linePost
	lineTitle
	linePath
)

type parsedLine struct {
	kind     lineKind
	progress Progress
	finished bool
	value    string
}

// parseLine classifies one line of engine output
func parseLine(raw string) parsedLine {
	line := strings.TrimRight(raw, "\r\n")
	switch {
	case strings.HasPrefix(line, markerProgress):
		return parseProgress(strings.TrimPrefix(line, markerProgress))
	case strings.HasPrefix(line, markerPost):
		return parsedLine{kind: linePost, progress: Progress{Percent: -1, PostProcessing: true}}
	case strings.HasPrefix(line, markerTitle):
		return parsedLine{kind: lineTitle, value: strings.TrimSpace(strings.TrimPrefix(line, markerTitle))}
	case strings.HasPrefix(line, markerPath):
		return parsedLine{kind: linePath, value: strings.TrimSpace(strings.TrimPrefix(line, markerPath))}
	}
	return parsedLine{kind: lineOther, value: strings.TrimSpace(line)}
}

func parseProgress(payload string) parsedLine {
	fields := strings.Split(payload, "|")
	for len(fields) < 5 {
		fields = append(fields, notAvailable)
	}
	status := strings.TrimSpace(fields[0])
	downloaded := parseNumber(fields[1])
	total := parseNumber(fields[2])
	if total <= 0 {
		total = parseNumber(fields[3])
	}

	p := Progress{Percent: -1, Speed: formatSpeed(parseNumber(fields[4]))}
	if downloaded >= 0 && total > 0 {
		p.Percent = downloaded / total * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
	}
	finished := status == "finished"
	if finished {
		p.Percent = 100
	}
	return parsedLine{kind: lineProgress, progress: p, finished: finished}
}

func parseNumber(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == notAvailable || value == "None" {
		return -1
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return -1
	}
	return n
}

// formatSpeed renders bytes per second as "1.2 MB/s". Unknown speed is empty.
func formatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond < 0 {
		return ""
	}
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}
