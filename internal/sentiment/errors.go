package sentiment

import "fmt"

// InitializationError reports that a classification capability could not be
// built. It is fatal at startup.
type InitializationError struct {
	Backend string
	Err     error
}

func (e *InitializationError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("sentiment: initialization failed: %v", e.Err)
	}
	return fmt.Sprintf("sentiment: %s initialization failed: %v", e.Backend, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ClassificationError reports a failed call to the capability. The caller
// decides whether to skip the text or surface the failure.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("sentiment: classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
