package dbcheck

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConn fails the first failures calls with err, then succeeds.
type fakeConn struct {
	failures int
	err      error
	calls    int
}

func (f *fakeConn) CurrentDatabase(ctx context.Context, timeout time.Duration) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "mw-9080_wiki", nil
}

func fastOptions(maxTries int) Options {
	return Options{
		Timeout:      time.Second,
		InitialSleep: 0,
		FirstBackoff: time.Millisecond,
		Factor:       1.5,
		MaxTries:     maxTries,
	}
}

func TestCheckSucceedsAfterFailures(t *testing.T) {
	for _, k := range []int{0, 1, 3, 8} {
		t.Run(fmt.Sprintf("fail %d", k), func(t *testing.T) {
			conn := &fakeConn{failures: k, err: errors.New("connection refused")}
			status, err := New(conn, "test", fastOptions(9), zap.NewNop()).Check(context.Background())
			require.NoError(t, err)
			assert.True(t, status.OK)
			assert.Equal(t, k+1, status.Attempts)
			assert.Equal(t, 9, status.MaxTries)
			assert.Equal(t, "mw-9080_wiki", status.Database)
			assert.NoError(t, status.Err)
		})
	}
}

func TestCheckExhausted(t *testing.T) {
	conn := &fakeConn{failures: 100, err: errors.New("connection refused")}
	status, err := New(conn, "test", fastOptions(4), zap.NewNop()).Check(context.Background())
	require.NoError(t, err)
	assert.False(t, status.OK)
	assert.Equal(t, 4, status.Attempts)
	assert.EqualError(t, status.Err, "connection refused")
}

func TestCheckAccessDeniedIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"driver error", &mysql.MySQLError{Number: 1045, Message: "Access denied for user 'mw-9080_user'@'172.18.0.1'"}},
		{"message only", errors.New("Error 1045: Access denied for user")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{failures: 100, err: tt.err}
			opts := fastOptions(9)
			opts.FirstBackoff = time.Hour

			start := time.Now()
			status, err := New(conn, "test", opts, zap.NewNop()).Check(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAccessDenied)
			assert.Equal(t, 1, status.Attempts)
			assert.False(t, status.OK)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestCheckAccessDeniedSingleTry(t *testing.T) {
	conn := &fakeConn{failures: 1, err: errors.New("Access denied")}
	status, err := New(conn, "test", fastOptions(1), zap.NewNop()).Check(context.Background())
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, 1, status.Attempts)
}

func TestCheckInitialSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := fastOptions(3)
	opts.InitialSleep = time.Minute

	status, err := New(&fakeConn{}, "test", opts, zap.NewNop()).Check(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, status.Attempts)
}

func TestIsAccessDenied(t *testing.T) {
	assert.False(t, IsAccessDenied(nil))
	assert.False(t, IsAccessDenied(errors.New("dial tcp 127.0.0.1:9306: connect: connection refused")))
	assert.True(t, IsAccessDenied(&mysql.MySQLError{Number: 1044}))
	assert.True(t, IsAccessDenied(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1045})))
	assert.False(t, IsAccessDenied(&mysql.MySQLError{Number: 1049, Message: "Unknown database"}))
	assert.True(t, IsAccessDenied(ErrAccessDenied))
}

func TestDSN(t *testing.T) {
	c := &MySQLConnector{Host: "localhost", Port: 9306, User: "mw-9080_user", Password: "p@ss", Database: "mw-9080_wiki"}
	dsn := c.DSN(5 * time.Second)
	assert.Contains(t, dsn, "mw-9080_user:p@ss@tcp(localhost:9306)/mw-9080_wiki")
	assert.Contains(t, dsn, "timeout=5s")

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "p@ss", cfg.Passwd)
}

func TestCloseNeverConnected(t *testing.T) {
	c := &MySQLConnector{}
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
