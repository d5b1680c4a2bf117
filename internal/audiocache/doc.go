// Package audiocache stores downloaded audio keyed by source URL so repeated
// transcriptions of the same link skip the download. Entries carry a small
// metadata file with the media title, are guarded by per-entry file locks,
// and are pruned oldest-first against a size budget and a free-space floor.
package audiocache
