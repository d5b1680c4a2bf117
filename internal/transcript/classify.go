package transcript

import (
	"regexp"
	"strings"
)

// Caption is one timestamped, speaker-attributed transcript line.
type Caption struct {
	Seconds int
	Speaker string
	Text    string
}

// captionPattern matches "[timestamp] Speaker: text". The bracket body is
// deliberately loose: ParseTimestamp decides whether the timestamp is usable,
// so ragged forms like "[0:00]" still classify as captions and a bracketed
// line with a speaker colon but garbage inside the brackets is recognized as
// a broken caption rather than mistaken for passthrough content. Bracketed
// markers without a speaker colon ("[MUSIC]", "[END]") never match.
var captionPattern = regexp.MustCompile(`^\[([^\]]+)\]\s*([^:]+?):\s*(.*)$`)

// ClassifyLine matches one trimmed transcript line against the caption
// pattern. matched reports whether the caption shape is present at all; ok
// reports whether its timestamp parsed. Lines that never match pass through
// verbatim, while a matched caption with an unusable timestamp (matched and
// not ok) is dropped by the processor.
func ClassifyLine(line string) (c Caption, matched, ok bool) {
	groups := captionPattern.FindStringSubmatch(line)
	if groups == nil {
		return Caption{}, false, false
	}
	seconds, ok := ParseTimestamp(groups[1])
	if !ok {
		return Caption{}, true, false
	}
	c = Caption{
		Seconds: seconds,
		Speaker: strings.TrimSpace(groups[2]),
		Text:    strings.TrimSpace(groups[3]),
	}
	return c, true, true
}
