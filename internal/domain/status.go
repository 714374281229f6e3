package domain

import "time"

// Taxonomy codes used in Status.Code when no HTTP status was obtained.
// Real HTTP statuses (including 408 for timeouts) occupy the positive
// range; these sentinels never collide with them.
const (
	// CodeConnectionFailed means the connection itself failed
	// (refused, reset, DNS resolution error).
	CodeConnectionFailed = 0

	// CodeClientError means the failure was recognizably
	// request-related but carried no HTTP status.
	CodeClientError = -1

	// CodeUnknownError covers everything the other buckets do not.
	CodeUnknownError = -2

	// CodeTimeout is recorded when the request exceeded its deadline.
	CodeTimeout = 408
)

// IsAccessible reports whether a final status code counts as reachable:
// any 2xx success or 3xx redirect.
func IsAccessible(code int) bool {
	return code >= 200 && code < 400
}

// IsRedirect reports whether a final status code is a redirect.
func IsRedirect(code int) bool {
	return code >= 300 && code < 400
}

// NewStatus derives the boolean classification from the final code and
// assembles a fully-populated Status.
func NewStatus(code int, redirectURL string, responseTime float64, sslValid *bool, checkedAt time.Time) *Status {
	s := &Status{
		Code:         code,
		Accessible:   IsAccessible(code),
		Redirect:     IsRedirect(code),
		ResponseTime: responseTime,
		SSLValid:     sslValid,
		LastChecked:  checkedAt,
	}
	if s.Redirect {
		s.RedirectURL = redirectURL
	}
	return s
}
