// Package pipeline orchestrates one transcription job end to end: stage a
// per-job directory, resolve audio through the cache or yt-dlp, transcribe
// with Gemini, post-process the transcript, and write the output file.
//
// History rows and ntfy notifications are recorded around each run on a best
// effort basis; their failures are logged and never fail the job itself.
package pipeline
