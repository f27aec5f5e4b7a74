package extractor

import "fmt"

// Failure reasons for a document that cannot be opened at all.
const (
	ReasonCorrupted = "corrupted"
	ReasonEncrypted = "encrypted"
	ReasonEmpty     = "empty"
)

// ExtractionError means the input could not be opened as a document.
// Per-page problems do not produce this error; they are reported as
// warnings on the extracted Document instead.
type ExtractionError struct {
	Reason string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed (%s): %s", e.Reason, e.Cause)
	}
	return fmt.Sprintf("extraction failed (%s)", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func extractionErr(reason string, cause error) *ExtractionError {
	return &ExtractionError{Reason: reason, Cause: cause}
}
