package runview

import "github.com/baikal-ai/baikalctl/internal/platform"

// StatusStyle is the presentation mapping for one run status.
type StatusStyle struct {
	Label  string
	Symbol string
	Color  string // ANSI escape, empty for the unknown fallback
}

var statusStyles = map[platform.RunStatus]StatusStyle{
	platform.RunQueued:  {Label: "queued", Symbol: "◌", Color: "\033[33m"},
	platform.RunRunning: {Label: "running", Symbol: "▶", Color: "\033[34m"},
	platform.RunSuccess: {Label: "success", Symbol: "✓", Color: "\033[32m"},
	platform.RunFailed:  {Label: "failed", Symbol: "✗", Color: "\033[31m"},
}

// unknownStyle is the single fallback for statuses outside the closed set.
var unknownStyle = StatusStyle{Label: "unknown", Symbol: "?"}

// StyleFor maps a status onto its presentation. Values outside the closed
// taxonomy get the unknown fallback rather than a crash.
func StyleFor(status platform.RunStatus) StatusStyle {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return unknownStyle
}
