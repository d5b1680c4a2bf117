// Package fetch downloads the audio track of a remote URL via yt-dlp and
// derives a display title for the media from the downloader's metadata.
package fetch
