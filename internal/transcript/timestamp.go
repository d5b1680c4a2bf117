package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp converts a transcript timestamp into elapsed seconds.
// Accepted forms are colon-separated integer fields, either MM:SS or
// HH:MM:SS; fields are not width-checked, so "1:02" parses as 62. Any
// fractional suffix after the first '.' is discarded. ok is false when the
// field count or any field is unusable.
func ParseTimestamp(text string) (seconds int, ok bool) {
	if i := strings.IndexByte(text, '.'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Split(text, ":")
	values := make([]int, len(fields))
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return 0, false
		}
		values[i] = n
	}
	switch len(values) {
	case 3:
		return values[0]*3600 + values[1]*60 + values[2], true
	case 2:
		return values[0]*60 + values[1], true
	default:
		return 0, false
	}
}

// FormatTimestamp renders elapsed seconds as HH:MM:SS with zero-padded
// fields. Negative inputs clamp to zero; hours wider than two digits render
// unpadded.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	remainder := seconds % 3600
	return fmt.Sprintf("%02d:%02d:%02d", hours, remainder/60, remainder%60)
}
