// Command ytqueue downloads videos, YouTube playlists and Spotify playlists
// through a bounded pool of yt-dlp workers.
//
// Usage:
//
//	ytqueue get [--format video|audio] [--folder NAME] SOURCE...
//	ytqueue history [clear]
//	ytqueue config show|path|init|set-spotify
//	ytqueue check
package main
