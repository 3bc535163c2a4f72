package analysis

import (
	"errors"
	"fmt"
)

// ChainError reports a stage that failed against the language-model backend.
// It aborts the whole analysis; callers may retry the request.
type ChainError struct {
	Stage string
	Err   error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }

// ErrMalformedPrediction indicates the backend did not return a well-formed
// category prediction record. Unlike freeform chain output there is no
// heuristic fallback for structured mode.
var ErrMalformedPrediction = errors.New("malformed category prediction")

// ErrMalformedEnrichment indicates the backend did not return a well-formed
// platform enrichment record.
var ErrMalformedEnrichment = errors.New("malformed enrichment record")

// ErrInconsistentInput is the user-facing rejection from the consistency
// check: the uploaded image does not show the product the description names.
var ErrInconsistentInput = errors.New("image does not match description")
