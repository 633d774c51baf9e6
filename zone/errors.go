package zone

import (
	"errors"
	"fmt"
)

var (
	// ErrCompleted is returned for zones which are configured to stay unsigned
	ErrCompleted = errors.New("zone is unsigned")

	// ErrStopTooEarly is returned if signing is stopped before the DS of the first KSK was submitted
	ErrStopTooEarly = errors.New("can't stop signing before the DS was submitted")

	// ErrRegistrarFailed is returned if the registrar refused or failed a DS update
	ErrRegistrarFailed = errors.New("registrar failed")

	// ErrMissingKey is returned if a DS should be submitted for a key without material
	ErrMissingKey = errors.New("missing key material")

	// ErrInvalidDocument is returned for config or status documents lacking a required value
	ErrInvalidDocument = errors.New("invalid document")
)

// AbortError is returned if processing of a zone was aborted. Keys created during the run were
// removed again and the status of the zone was not persisted.
type AbortError struct {
	Zone string
	Err  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("zone %s aborted: %s", e.Zone, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

func abort(zone string, err error) error {
	var abortErr *AbortError
	if errors.As(err, &abortErr) {
		return err
	}

	return &AbortError{Zone: zone, Err: err}
}
