// Package transcript normalizes raw model transcripts into merged speaker
// segments.
//
// Model output arrives as many short captions, each prefixed with a bracketed
// timestamp and a speaker name. This package folds consecutive captions from
// the same speaker into one line per segment, re-rendering start timestamps
// in canonical HH:MM:SS form, while passing every non-caption line through
// verbatim in its original position. Captions whose timestamp cannot be
// parsed are dropped with a warning rather than emitted.
//
// Processing is deterministic and purely textual: no I/O, no reordering, and
// no interpretation of caption content beyond the timestamp and speaker
// prefix.
package transcript
