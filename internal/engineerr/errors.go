// Package engineerr defines the engine's error taxonomy. Build-time
// errors are fatal; query-time errors are mapped to an HTTP status and
// a short message at the API boundary.
package engineerr

import "errors"

// Sentinel kinds. Use errors.Is against these, wrapped with %w for
// context, rather than matching on message text.
var (
	// ErrIngest covers malformed inputs, missing mandatory fields, and
	// unreadable files encountered while building the graph. Fatal at
	// build time.
	ErrIngest = errors.New("ingest error")

	// ErrNoGraphNodes means the spatial index ended up empty after a
	// build. Treated as a build-time ingest failure.
	ErrNoGraphNodes = errors.New("graph has no nodes")

	// ErrStartTooFar means the query coordinate is more than the
	// configured maximum distance from any graph node.
	ErrStartTooFar = errors.New("start coordinate too far from graph")

	// ErrBadTime means a query parameter was malformed: arrival_time
	// failed to parse as HH:MM:SS or fell outside one day, or lat, lon
	// or duration was missing or invalid.
	ErrBadTime = errors.New("malformed arrival time")

	// ErrIsolineFailure means contour extraction failed, e.g. because
	// the scalar field contained non-finite values.
	ErrIsolineFailure = errors.New("isoline extraction failed")
)
