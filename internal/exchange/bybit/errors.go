package bybit

import (
	"errors"
	"fmt"
)

// Venue error codes the executor classifies.
const (
	codeInvalidAPIKey     = 10003
	codeInvalidSignature  = 10004
	codeInvalidTimestamp  = 10005
	codeRateLimitExceeded = 10006
)

// APIError is a non-zero retCode returned inside an HTTP 200 response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit API error %d: %s", e.Code, e.Message)
}

// ParseAPIError converts a non-zero retCode into an APIError.
func ParseAPIError(retCode int, retMsg string) error {
	if retCode == 0 {
		return nil
	}
	return &APIError{Code: retCode, Message: retMsg}
}

var retryableCodes = map[int]bool{
	codeRateLimitExceeded: true,
	500:                   true, // venue-side failure surfaced as retCode
	502:                   true,
	503:                   true,
	504:                   true,
}

// IsRetryableError reports whether the call may be safely reissued.
func IsRetryableError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && retryableCodes[apiErr.Code]
}

// IsAuthenticationError reports whether the error is a credential problem.
// Retrying these only burns rate limit.
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case codeInvalidAPIKey, codeInvalidSignature, codeInvalidTimestamp:
		return true
	}
	return false
}
