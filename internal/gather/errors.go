package gather

import "errors"

var (
	// ErrInvalidURL is returned when the URL to audit cannot be used.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnexpectedStatus is returned when the main document is not served with a 2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNotHTML is returned when the main document is not an HTML page.
	ErrNotHTML = errors.New("document is not HTML")

	// ErrBodyTooLarge is returned when a response, encoded or decoded, exceeds
	// the body size limit. Audits must not score a truncated resource.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrEmptyDocument is returned when the main document has no content.
	ErrEmptyDocument = errors.New("document is empty")
)
