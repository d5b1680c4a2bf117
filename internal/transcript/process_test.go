package transcript_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"quill/internal/transcript"
)

// recordingHandler captures emitted records so tests can assert on warnings.
type recordingHandler struct {
	records *[]slog.Record
}

func (recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h recordingHandler) Handle(_ context.Context, record slog.Record) error {
	*h.records = append(*h.records, record)
	return nil
}

func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h recordingHandler) WithGroup(string) slog.Handler { return h }

func TestProcessMergesSameSpeaker(t *testing.T) {
	input := "[00:00] A: Hi\n[00:02] A: there\n[00:05] B: Hey"
	want := "[00:00:00] A: Hi there\n[00:00:05] B: Hey"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessWindowMeasuredFromSegmentStart(t *testing.T) {
	// 25 merges (25 <= 30) and 50 splits (50 > 30) even though it lands only
	// 25 seconds after the previous caption.
	input := "[00:00] A: one\n[00:25] A: two\n[00:50] A: three"
	want := "[00:00:00] A: one two\n[00:00:50] A: three"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessWindowBoundaryInclusive(t *testing.T) {
	// A caption exactly maxSegmentDuration past the start still merges; the
	// split requires strictly greater.
	input := "[00:00] A: one\n[00:30] A: two\n[00:31] A: three"
	want := "[00:00:00] A: one two\n[00:00:31] A: three"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessCustomWindow(t *testing.T) {
	input := "[00:00] A: one\n[00:20] A: two\n[00:40] A: three"
	opts := transcript.Options{MaxSegmentDuration: 45}
	want := "[00:00:00] A: one two three"
	if got := transcript.Process(input, opts); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessPassthroughFlushesSegment(t *testing.T) {
	input := strings.Join([]string{
		"[00:00] A: before",
		"INTRO MUSIC",
		"[00:02] A: after",
	}, "\n")
	want := strings.Join([]string{
		"[00:00:00] A: before",
		"INTRO MUSIC",
		"[00:00:02] A: after",
	}, "\n")
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessSpeakerChangeAlwaysSplits(t *testing.T) {
	// Identical and decreasing timestamps still split on a speaker change.
	input := "[00:05] A: one\n[00:05] B: two\n[00:03] A: three"
	want := "[00:00:05] A: one\n[00:00:05] B: two\n[00:00:03] A: three"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessDecreasingTimestampsSameSpeakerMerge(t *testing.T) {
	input := "[00:10] A: later\n[00:05] A: earlier"
	want := "[00:00:10] A: later earlier"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessBlankLinesDoNotFlush(t *testing.T) {
	input := "[00:00] A: Hi\n\n   \n[00:02] A: there"
	want := "[00:00:00] A: Hi there"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessNormalizesStartTimestamp(t *testing.T) {
	// 00:62 parses as 62 seconds and re-renders canonically.
	input := "[00:62] A: odd"
	want := "[00:01:02] A: odd"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessEmptyCaptionText(t *testing.T) {
	input := "[00:00] A:\n[00:02] A: spoke"
	want := "[00:00:00] A: spoke"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessAllEmptySegmentKeepsTrailingSpace(t *testing.T) {
	got := transcript.Process("[00:00] A:", transcript.Options{})
	if got != "[00:00:00] A: " {
		t.Fatalf("Process = %q, want %q", got, "[00:00:00] A: ")
	}
}

func TestProcessPreservesNonCaptionLinesInOrder(t *testing.T) {
	input := strings.Join([]string{
		"Transcript follows:",
		"[00:00] Brady: Hello there.",
		"[00:02] Tim: Hi Brady.",
		"[MUSIC]",
		"[00:10] Tim: Back again.",
		"[END]",
	}, "\n")
	want := strings.Join([]string{
		"Transcript follows:",
		"[00:00:00] Brady: Hello there.",
		"[00:00:02] Tim: Hi Brady.",
		"[MUSIC]",
		"[00:00:10] Tim: Back again.",
		"[END]",
	}, "\n")
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessDropsCaptionWithBadTimestamp(t *testing.T) {
	var records []slog.Record
	logger := slog.New(recordingHandler{records: &records})

	input := "[bad] A: broken\n[00:00] A: Hi"
	want := "[00:00:00] A: Hi"
	if got := transcript.Process(input, transcript.Options{Logger: logger}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(records))
	}
	record := records[0]
	if record.Level != slog.LevelWarn {
		t.Fatalf("level = %v, want warn", record.Level)
	}
	var lineNumber int64 = -1
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "line" {
			lineNumber = attr.Value.Int64()
		}
		return true
	})
	if lineNumber != 1 {
		t.Fatalf("line attr = %d, want 1", lineNumber)
	}
}

func TestProcessDroppedCaptionDoesNotSplitSegment(t *testing.T) {
	// A dropped caption vanishes without flushing, unlike a passthrough line.
	input := "[00:00] A: Hi\n[xx:yy] A: lost\n[00:02] A: there"
	want := "[00:00:00] A: Hi there"
	if got := transcript.Process(input, transcript.Options{}); got != want {
		t.Fatalf("Process = %q, want %q", got, want)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t\n"} {
		if got := transcript.Process(input, transcript.Options{}); got != "" {
			t.Fatalf("Process(%q) = %q, want empty", input, got)
		}
	}
}

func TestProcessNoTrailingNewline(t *testing.T) {
	got := transcript.Process("[00:00] A: Hi\n", transcript.Options{})
	if strings.HasSuffix(got, "\n") {
		t.Fatalf("expected no trailing newline, got %q", got)
	}
}
