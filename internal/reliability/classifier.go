package reliability

// IsRetryableHTTPStatus classifies retryable HTTP status codes. The query
// pipeline never retries on its own; the classification is surfaced to
// callers so they can decide whether a repeat attempt is worth it.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
