// Package retry retries remote calls that failed with a rate-limit signal.
// Every other failure is returned on the first attempt.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Policy bounds a retry loop. MaxAttempts counts the first call.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy waits 5s, then 10s, before giving up on the third attempt.
var DefaultPolicy = Policy{MaxAttempts: 3, BaseDelay: 5 * time.Second}

func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// IsRateLimit reports whether err's message mentions "rate limit",
// case-insensitively.
func IsRateLimit(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "rate limit")
}

// linearBackOff yields BaseDelay*n before retry n.
type linearBackOff struct {
	base time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.base * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

// Do runs op until it succeeds, fails with a non rate-limit error, or the
// policy's attempts are used up. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	return DoNotify(ctx, p, op, nil)
}

// DoNotify is Do with a hook called before each backoff sleep.
func DoNotify[T any](
	ctx context.Context,
	p Policy,
	op func(ctx context.Context) (T, error),
	notify func(err error, attempt int, wait time.Duration),
) (T, error) {
	p = p.normalize()

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err != nil && !IsRateLimit(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	var b backoff.BackOff = &linearBackOff{base: p.BaseDelay}
	b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	b = backoff.WithContext(b, ctx)

	var n backoff.Notify
	if notify != nil {
		n = func(err error, wait time.Duration) { notify(err, attempt, wait) }
	}

	res, err := backoff.RetryNotifyWithData(operation, b, n)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return res, perm.Err
	}
	return res, err
}

// LogNotify returns a notify hook that logs each retry on log.
func LogNotify(log *logrus.Entry, op string) func(error, int, time.Duration) {
	return func(err error, attempt int, wait time.Duration) {
		log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		}).Warn("rate limit hit, retrying")
	}
}
