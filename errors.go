package session

import "fmt"

// MaxRetriesError is returned by [Session.Do] when all attempts were used
// and the last outcome was still retryable. StatusCode is the status of
// the final response.
type MaxRetriesError struct {
	Method     string
	URL        string
	Attempts   int
	StatusCode int
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("%s %s: giving up after %d attempt(s), last status %d",
		e.Method, e.URL, e.Attempts, e.StatusCode)
}
