package pipeline

import "errors"

var (
	// ErrNoArtifacts is returned by steps that need gathered artifacts when
	// none are present on the report.
	ErrNoArtifacts = errors.New("no artifacts gathered")

	// ErrNoResults is returned by CategoryStep when no audit has run yet.
	ErrNoResults = errors.New("no audit results")
)
