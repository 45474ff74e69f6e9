// Package vision defines the port for the optical text-extraction
// collaborator. The engine never calls this directly; the extraction
// worker does, and its failures stay on the job record.
package vision

import "context"

// TextExtractor pulls the raw text off a timesheet image. The returned
// string is unstructured; extract.ParseRoster makes sense of it.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}
