package ui

// Package ui renders job events as plain terminal lines. A Renderer is an
// observer for download.Service: it prints state changes, resolution
// messages and sampled progress, and keeps the final state of every job for
// the closing summary.
