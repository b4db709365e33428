package nekoweb

import (
	"errors"
	"fmt"
)

// ErrUsernameRequired is returned by (*Client).GetSite when no username is
// given. Looking up "my own site" needs an AuthClient.
var ErrUsernameRequired = errors.New("username is required for unauthenticated site lookup")

// APIError is returned for any response outside the 2xx range. The library
// does not interpret the status; callers can.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("nekoweb %s %s: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("nekoweb %s %s: %s: %s", e.Method, e.Path, e.Status, e.Body)
}

// AsAPIError reports whether err (or anything it wraps) is an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
