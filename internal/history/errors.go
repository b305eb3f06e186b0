package history

import "github.com/m-mizutani/goerr/v2"

// Error tags classify ingestion failures so the HTTP layer can map them to
// status codes without string matching.
var (
	// TagValidation marks malformed or out-of-range batches. The whole batch
	// is rejected before any mutation.
	TagValidation = goerr.NewTag("validation")

	// TagTooLarge marks batches exceeding the configured entry limit.
	TagTooLarge = goerr.NewTag("too_large")

	// TagStorage marks log-append or snapshot-write failures. Surfaced to
	// callers as an opaque server error.
	TagStorage = goerr.NewTag("storage")
)
