package irrigation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput means the payload could not be parsed as a JSON object.
	ErrMalformedInput = errors.New("malformed input")
	// ErrIncompleteData means a required measurement is missing.
	ErrIncompleteData = errors.New("incomplete data")
	// ErrStoreFailure means the reading store rejected a read or a write.
	ErrStoreFailure = errors.New("store failure")
	// ErrTransportFailure means a command could not be handed to the broker.
	ErrTransportFailure = errors.New("transport failure")
	// ErrInvalidPumpState means a value other than ON or OFF was offered as pump state.
	ErrInvalidPumpState = errors.New("invalid pump state")
)

// MalformedInputError wraps the decoder error for an unparseable payload.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() []error {
	return []error{ErrMalformedInput, e.Err}
}

// IncompleteDataError names the first missing required field.
type IncompleteDataError struct {
	Field   string
	missing []string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("incomplete data: missing %s", strings.Join(e.Missing(), ", "))
}

func (e *IncompleteDataError) Unwrap() error {
	return ErrIncompleteData
}

// Missing lists every required field absent from the payload.
func (e *IncompleteDataError) Missing() []string {
	if len(e.missing) == 0 {
		return []string{e.Field}
	}

	return e.missing
}

// StoreFailureError wraps an error returned by the reading store.
type StoreFailureError struct {
	Op  string
	Err error
}

func (e *StoreFailureError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreFailureError) Unwrap() []error {
	return []error{ErrStoreFailure, e.Err}
}

// TransportFailureError wraps a broker publish error.
type TransportFailureError struct {
	Topic string
	Err   error
}

func (e *TransportFailureError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Topic, e.Err)
}

func (e *TransportFailureError) Unwrap() []error {
	return []error{ErrTransportFailure, e.Err}
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}

	return &StoreFailureError{Op: op, Err: err}
}
