package prompt_test

import (
	"strings"
	"testing"

	"quill/internal/prompt"
)

func TestBuildListsSpeakers(t *testing.T) {
	text := prompt.Build([]string{"Brady", "Tim"})
	if !strings.HasPrefix(text, "Generate a transcript of the episode.") {
		t.Fatalf("unexpected prompt start: %q", text[:60])
	}
	if !strings.Contains(text, "Speakers are:\n- Brady\n- Tim\n\neg:") {
		t.Fatalf("expected speaker list block, got:\n%s", text)
	}
}

func TestBuildSkipsBlankSpeakers(t *testing.T) {
	text := prompt.Build([]string{" Host ", "", "  "})
	if !strings.Contains(text, "- Host\n\neg:") {
		t.Fatalf("expected single trimmed speaker, got:\n%s", text)
	}
}

func TestBuildKeepsFormatContract(t *testing.T) {
	text := prompt.Build([]string{"Host"})
	for _, fragment := range []string{
		"[00:00] Brady: Hello there.",
		"[00:02] Tim: Hi Brady.",
		"leading timestamp in HH:MM:SS format",
		"End the transcript with the tag [END].",
		"plain text with one caption per line.",
	} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected prompt to contain %q", fragment)
		}
	}
}
