// Package errs defines the error taxonomy shared by the pipeline stages.
package errs

import "fmt"

// ConfigError signals a missing required credential or setting. It is fatal
// only to the stage that needs the value.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not set", e.Key)
}

// UpstreamError signals a non-2xx or malformed response from an external
// service, after retries are exhausted.
type UpstreamError struct {
	Service string
	Status  int
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ExtractionError signals a scrape or parse failure for one article.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError signals a well-formed but semantically incomplete response,
// e.g. a rewrite payload missing required fields.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
