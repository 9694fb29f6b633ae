package cunyfirst

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// literal marker the portal embeds in response bodies once the API
// session has lapsed
const sessionExpiredMarker = "Oops, you must log into this application before loading that link."

var ErrSessionExpired = errors.New("session expired, please log in again")

var errMissingLocation = errors.New("expected a redirect target, got none")

// StatusError is returned for responses outside the 2xx/3xx range.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// TransportError is returned once the bounded retry on transient
// failures has been exhausted.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func checkSessionBody(res *resty.Response) error {
	if strings.Contains(res.String(), sessionExpiredMarker) {
		return ErrSessionExpired
	}
	return nil
}
