package postproc

import "strings"

// artifactMarker is emitted by some summarization decoders in place of a
// line break and must not survive into the predictions file.
const artifactMarker = "<n>"

// Clean replaces every artifact marker with a single space.
func Clean(summary string) string {
	return strings.ReplaceAll(summary, artifactMarker, " ")
}
