package ui

// Icons (symbols)
const (
	IconOK      = "✓"
	IconError   = "✗"
	IconRunning = "↓"
	IconResolve = "…"
	IconQueued  = "·"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%3.0f%%"
)

// ProgressLogBucket is the percent step between printed progress lines
const ProgressLogBucket = 25
