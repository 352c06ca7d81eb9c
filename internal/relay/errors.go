package relay

import "fmt"

// ValidationError rejects an upload whose declared type or size is not
// acceptable. The relay state is never touched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// MissingDataError rejects an upload that carried no frame.
type MissingDataError struct{}

func (e *MissingDataError) Error() string {
	return "No frame data received"
}

// InternalError wraps an unexpected failure while admitting or serving a frame.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
