package remote

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	// ErrHostNotSet means the server host is missing from the config
	// file. Distinct from a missing token; both are raised before any
	// network call is attempted.
	ErrHostNotSet = errors.New("server host not configured, run 'mnemy host <url>' first")

	// ErrRemoteNotFound means the server has no data for this game.
	// An expected outcome, not a failure.
	ErrRemoteNotFound = errors.New("no remote data for this game")
)

// NetworkError wraps transport-level failures (timeout, refused
// connection, DNS) so callers can tell them apart from protocol
// problems. The client never retries; that is the caller's call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError covers responses the client did not expect: bad
// status codes, non-JSON bodies, missing fields.
type ProtocolError struct {
	Op     string
	Status int
	Detail string
}

func (e *ProtocolError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected response during %s: status %d", e.Op, e.Status)
	}

	return fmt.Sprintf("unexpected response during %s: status %d: %s", e.Op, e.Status, e.Detail)
}

// checkResponse translates a req outcome into the error taxonomy.
func checkResponse(resp *req.Response, requestErr error, op string) error {
	if requestErr != nil {
		return &NetworkError{Op: op, Err: requestErr}
	}

	if resp.IsErrorState() {
		return &ProtocolError{Op: op, Status: resp.StatusCode, Detail: resp.String()}
	}

	return nil
}
