// Package prompt renders the instruction text sent to the transcription
// model.
package prompt

import "strings"

// transcriptHeader and transcriptInstructions capture the prompt sent to
// Gemini when requesting a transcript. Keep updates centralized here so the
// wording is easy to tweak without hunting through call sites. The caption
// format the prompt demands must stay in sync with what the transcript
// post-processor parses.
const transcriptHeader = `Generate a transcript of the episode. Include timestamps and identify speakers.

Speakers are:
`

const transcriptInstructions = `

eg:
[00:00] Brady: Hello there.
[00:02] Tim: Hi Brady.

Instructions:
- Use short captions (one or two short sentences) with a leading timestamp in HH:MM:SS format.
- Identify speakers with the exact names above. If unknown, use single letters (A, B, ...).
- Mark music/jingles or other sounds in square brackets, e.g. [MUSIC] or [Bell ringing]. If you can identify the song, include the title.
- Use only English alphabet characters unless foreign characters are correct.
- Spell names of people, movies, books or places correctly — use context.
- Do NOT use markdown formatting; output plain text only.
- End the transcript with the tag [END].

Produce the transcript as plain text with one caption per line.
`

// Build renders the transcription prompt listing the given speaker names.
// Blank names are skipped; callers are expected to supply at least one.
func Build(speakers []string) string {
	names := make([]string, 0, len(speakers))
	for _, speaker := range speakers {
		trimmed := strings.TrimSpace(speaker)
		if trimmed == "" {
			continue
		}
		names = append(names, "- "+trimmed)
	}

	var b strings.Builder
	b.Grow(len(transcriptHeader) + len(transcriptInstructions) + 16*len(names))
	b.WriteString(transcriptHeader)
	b.WriteString(strings.Join(names, "\n"))
	b.WriteString(transcriptInstructions)
	return b.String()
}
