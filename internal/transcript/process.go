package transcript

import (
	"fmt"
	"log/slog"
	"strings"

	"quill/internal/logging"
)

// DefaultMaxSegmentDuration caps how many seconds past a segment's start a
// same-speaker caption may land before a new segment begins.
const DefaultMaxSegmentDuration = 30

// Options adjust Process behavior. The zero value is usable.
type Options struct {
	// MaxSegmentDuration is the merge window in seconds, measured from the
	// open segment's start. Values <= 0 fall back to
	// DefaultMaxSegmentDuration.
	MaxSegmentDuration int
	// Logger receives warnings about dropped captions. Nil disables them.
	Logger *slog.Logger
}

// segment is the single open run of same-speaker captions. startText is the
// re-rendered start timestamp, so it is well-formed even when the matched
// input timestamp was irregular.
type segment struct {
	startText    string
	startSeconds int
	speaker      string
	parts        []string
}

func (s *segment) render() string {
	kept := make([]string, 0, len(s.parts))
	for _, part := range s.parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return fmt.Sprintf("[%s] %s: %s", s.startText, s.speaker, strings.Join(kept, " "))
}

// Process folds a raw model transcript into merged speaker segments.
//
// Each trimmed input line is classified once: captions accumulate into the
// open segment, which closes on a speaker change, on a caption landing more
// than the merge window past the segment start, or on any non-caption line.
// Non-caption lines are emitted verbatim in their original order, and
// captions with unparseable timestamps are dropped with a warning. Output
// lines join with "\n" and carry no trailing newline; empty input yields
// empty output.
func Process(input string, opts Options) string {
	maxDuration := opts.MaxSegmentDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxSegmentDuration
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	lines := strings.Split(strings.TrimSpace(input), "\n")
	output := make([]string, 0, len(lines))
	var open *segment

	flush := func() {
		if open == nil {
			return
		}
		output = append(output, open.render())
		open = nil
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		caption, matched, ok := ClassifyLine(line)
		if !matched {
			flush()
			output = append(output, line)
			continue
		}
		if !ok {
			logger.Warn("skipping caption with invalid timestamp",
				logging.Int("line", i+1),
				logging.String("text", line))
			continue
		}

		startNew := open == nil ||
			caption.Speaker != open.speaker ||
			caption.Seconds-open.startSeconds > maxDuration
		if startNew {
			flush()
			open = &segment{
				startText:    FormatTimestamp(caption.Seconds),
				startSeconds: caption.Seconds,
				speaker:      caption.Speaker,
				parts:        []string{caption.Text},
			}
			continue
		}
		if caption.Text != "" {
			open.parts = append(open.parts, caption.Text)
		}
	}
	flush()

	return strings.Join(output, "\n")
}
