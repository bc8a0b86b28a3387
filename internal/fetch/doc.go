// Package fetch runs the yt-dlp engine for a single source and reports its
// progress. The engine is driven as a subprocess with machine-readable
// progress templates so output parsing does not depend on yt-dlp's human
// formatting.
package fetch
