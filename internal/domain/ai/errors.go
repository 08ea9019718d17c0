package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnavailable is returned while the provider's circuit breaker is open.
var ErrUnavailable = errors.New("ai provider unavailable")

// ErrEmptyResponse is returned when the provider answers without any choice.
var ErrEmptyResponse = errors.New("ai empty response")
