// Package resolve expands playlist sources into individual download jobs.
//
// A Spotify playlist becomes one "ytsearch1:<artist> - <name>" job per track.
// A YouTube playlist, when expansion is enabled, becomes one watch URL per
// item. The job that carried the playlist is a placeholder: it moves through
// Resolving to Completed or Error and is removed shortly after fan-out.
package resolve
