// Package lock serializes work on a single rental across processes.
package lock

import (
	"context"
	"errors"
	"time"
)

var ErrLocked = errors.New("lock: key is held by another owner")

// Unlock releases a held lock. Releasing an expired lock is a no-op.
type Unlock func(ctx context.Context) error

type Locker interface {
	// Lock blocks until key is acquired, the wait budget is spent
	// (ErrLocked) or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

type Options struct {
	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration
	// Wait is how long Lock keeps retrying before giving up.
	Wait time.Duration
	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 10 * time.Second
	}
	if o.Wait < 0 {
		o.Wait = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 50 * time.Millisecond
	}
	return o
}

// acquireLoop calls try until it succeeds, errors, or the wait budget runs out.
func acquireLoop(ctx context.Context, opts Options, try func(ctx context.Context) (bool, error)) error {
	deadline := time.Now().Add(opts.Wait)
	for {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Add(opts.RetryInterval).Before(deadline) {
			return ErrLocked
		}

		timer := time.NewTimer(opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RentalKey is the lock key guarding one rental.
func RentalKey(rentalID string) string {
	return "lock:rental:" + rentalID
}
