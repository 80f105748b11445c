package domain

import "errors"

// ErrRateLimited marks upstream rate limiting after retries were exhausted.
// The API boundary maps it to HTTP 429 so clients can back off, instead of
// disguising partial data as a valid result.
var ErrRateLimited = errors.New("upstream data provider rate limited")
