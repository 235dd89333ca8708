package audit

import "errors"

var (
	// ErrMissingArtifact is returned when an audit's required artifact was not gathered.
	ErrMissingArtifact = errors.New("required artifact is missing")

	// ErrInvalidScore is returned when an audit produces a score outside [0, 1].
	ErrInvalidScore = errors.New("audit produced an invalid score")

	// ErrInvalidVideoURL is returned when a <video> source cannot be resolved
	// to an absolute URL.
	ErrInvalidVideoURL = errors.New("invalid video URL")

	// ErrProberNotFound is returned when the codec probing tool is not installed.
	ErrProberNotFound = errors.New("codec prober not found")

	// ErrProbeFailed is returned when the codec probing tool exits with an error.
	ErrProbeFailed = errors.New("codec probe failed")

	// ErrProbeTimeout is returned when probing a single URL takes too long.
	ErrProbeTimeout = errors.New("codec probe timed out")

	// ErrInvalidProbeOutput is returned when the prober output is not valid JSON.
	ErrInvalidProbeOutput = errors.New("invalid codec probe output")

	// ErrNoStreams is returned when the probed resource has no media stream
	// or the first stream has no codec name.
	ErrNoStreams = errors.New("no media stream found")
)
