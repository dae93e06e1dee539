package util

import "time"

// RetryPolicy describes how outbound platform calls are retried. A zero
// policy runs the call once.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Do runs fn until it succeeds, the attempt budget runs out, or
// retryable reports an error as permanent. The last error is returned.
func (p RetryPolicy) Do(fn func() error, retryable func(error) bool) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if i < attempts-1 && p.Backoff > 0 {
			time.Sleep(p.Backoff << uint(i))
		}
	}
	return err
}
