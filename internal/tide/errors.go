package tide

import (
	"fmt"
	"net/http"
)

// FetchError is a failed call to the NOAA prediction service. It is always
// worth retrying.
type FetchError struct {
	StationID  string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("NOAA API error for station %s: %s", e.StationID, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d %s)", msg, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new fetch error
func NewFetchError(stationID, message string, err error) *FetchError {
	return &FetchError{
		StationID: stationID,
		Message:   message,
		Err:       err,
	}
}

// StationUnavailableError is returned once retries are exhausted. Callers
// show the station as failed rather than rendering a partial timeline.
type StationUnavailableError struct {
	StationID string
	Err       error
}

func (e *StationUnavailableError) Error() string {
	return fmt.Sprintf("station %s unavailable: %v", e.StationID, e.Err)
}

func (e *StationUnavailableError) Unwrap() error {
	return e.Err
}

// InvalidQueryError reports a request that can never succeed
type InvalidQueryError struct {
	Message string
}

func (e *InvalidQueryError) Error() string {
	return e.Message
}

func NewInvalidQueryError(message string) *InvalidQueryError {
	return &InvalidQueryError{
		Message: message,
	}
}
