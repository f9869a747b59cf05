// Package dbcheck checks that the database of a wiki instance accepts
// connections, retrying with exponential backoff while it warms up.
package dbcheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Conn is a database connection that can be checked.
type Conn interface {
	// CurrentDatabase runs `SELECT database()` within timeout.
	CurrentDatabase(ctx context.Context, timeout time.Duration) (string, error)
}

// Options control the retry loop. Zero values select the defaults.
type Options struct {
	// Timeout of a single connection attempt.
	Timeout time.Duration
	// InitialSleep is waited before the first attempt.
	InitialSleep time.Duration
	// FirstBackoff is the pause after the first failed attempt.
	FirstBackoff time.Duration
	// Factor multiplies the pause after every failed attempt.
	Factor float64
	// MaxTries is the total number of attempts.
	MaxTries int
}

// DefaultOptions returns the settings used when starting an instance.
func DefaultOptions() Options {
	return Options{
		Timeout:      10 * time.Second,
		InitialSleep: 4 * time.Second,
		FirstBackoff: 2 * time.Second,
		Factor:       1.5,
		MaxTries:     9,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.InitialSleep < 0 {
		o.InitialSleep = 0
	}
	if o.FirstBackoff <= 0 {
		o.FirstBackoff = d.FirstBackoff
	}
	if o.Factor < 1 {
		o.Factor = d.Factor
	}
	if o.MaxTries <= 0 {
		o.MaxTries = d.MaxTries
	}
	return o
}

// Status is the outcome of a check.
type Status struct {
	Attempts int
	MaxTries int
	OK       bool
	Msg      string
	Database string
	// Err is the error of the last failed attempt.
	Err error
}

// Checker checks a database connection.
type Checker struct {
	conn Conn
	opts Options
	log  *zap.Logger
	// Msg describes the connection in log lines, e.g. "SQL-Connection to
	// mw-9080_wiki on localhost port 9306 with user mw-9080_user".
	Msg string
}

// New returns a checker for conn.
func New(conn Conn, msg string, opts Options, log *zap.Logger) *Checker {
	return &Checker{conn: conn, opts: opts.withDefaults(), log: log, Msg: msg}
}

// Check waits InitialSleep and then tries to query the database until it
// succeeds or MaxTries attempts were made. Exhausting the attempts is not an
// error: the caller must look at Status.OK. An access denied error stops
// the check at once and is returned.
func (p *Checker) Check(ctx context.Context) (*Status, error) {
	status := &Status{MaxTries: p.opts.MaxTries, Msg: p.Msg}
	p.log.Info("checking database connection",
		zap.String("connection", p.Msg),
		zap.Int("max_tries", p.opts.MaxTries),
		zap.Duration("timeout", p.opts.Timeout),
		zap.Duration("initial_sleep", p.opts.InitialSleep))

	if err := sleep(ctx, p.opts.InitialSleep); err != nil {
		return status, err
	}

	op := func() (string, error) {
		status.Attempts++
		name, err := p.conn.CurrentDatabase(ctx, p.opts.Timeout)
		if err != nil {
			status.Err = err
			if IsAccessDenied(err) {
				return "", backoff.Permanent(fmt.Errorf("%w: %w", ErrAccessDenied, err))
			}
			return "", err
		}
		return name, nil
	}
	notify := func(err error, next time.Duration) {
		p.log.Info("connection attempt failed, will retry",
			zap.Int("attempt", status.Attempts),
			zap.Int("max_tries", status.MaxTries),
			zap.Duration("retry_in", next),
			zap.Error(err))
	}

	name, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     p.opts.FirstBackoff,
			RandomizationFactor: 0,
			Multiplier:          p.opts.Factor,
			MaxInterval:         time.Hour,
		}),
		backoff.WithMaxTries(uint(p.opts.MaxTries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		if errors.Is(err, ErrAccessDenied) {
			p.log.Error("connection attempt failed, will not retry",
				zap.Int("attempt", status.Attempts), zap.Error(err))
			return status, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return status, ctxErr
		}
		p.log.Warn("database connection not established",
			zap.String("connection", p.Msg), zap.Int("attempts", status.Attempts), zap.Error(err))
		return status, nil
	}

	status.OK = true
	status.Database = name
	status.Err = nil
	p.log.Info("database connection established",
		zap.String("connection", p.Msg), zap.String("database", name), zap.Int("attempts", status.Attempts))
	return status, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
