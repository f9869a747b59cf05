package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Kind tells the role of a container in a wiki instance.
type Kind string

const (
	KindWebserver Kind = "webserver"
	KindDatabase  Kind = "database"
)

const (
	DefaultWaitInterval = 200 * time.Millisecond
	DefaultWaitTimeout  = 60 * time.Second
)

// Handle is a view onto one named container. It holds no engine state:
// every call queries the engine again.
type Handle struct {
	Name   string
	Kind   Kind
	engine Engine
	log    *zap.Logger
}

// NewHandle returns a handle for the named container.
func NewHandle(engine Engine, name string, kind Kind, log *zap.Logger) *Handle {
	return &Handle{Name: name, Kind: kind, engine: engine, log: log}
}

// Inspect returns the current engine state of the container.
func (h *Handle) Inspect(ctx context.Context) (*Container, error) {
	return h.engine.Inspect(ctx, h.Name)
}

// Running reports whether the container is currently running.
func (h *Handle) Running(ctx context.Context) (bool, error) {
	c, err := h.engine.Inspect(ctx, h.Name)
	if err != nil {
		return false, err
	}
	return c.Running, nil
}

// WaitForState polls the container every interval until its running flag
// equals running. It returns the time waited, or a *StateTimeoutError once
// timeout has passed. Zero interval and timeout select the defaults.
func (h *Handle) WaitForState(ctx context.Context, running bool, interval, timeout time.Duration) (time.Duration, error) {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	start := time.Now()
	deadline := start.Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		state, err := h.Running(ctx)
		if err != nil {
			return time.Since(start), err
		}
		if state == running {
			return time.Since(start), nil
		}
		if time.Now().After(deadline) {
			return time.Since(start), &StateTimeoutError{Container: h.Name, Running: running, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		case <-ticker.C:
		}
	}
}

// HostPort returns the host port bound to the container's localPort.
func (h *Handle) HostPort(ctx context.Context, localPort int) (string, error) {
	c, err := h.engine.Inspect(ctx, h.Name)
	if err != nil {
		return "", err
	}
	port, ok := c.HostPort(localPort)
	if !ok {
		return "", fmt.Errorf("container %s has no host binding for port %d", h.Name, localPort)
	}
	return port, nil
}

// Env returns the container's environment.
func (h *Handle) Env(ctx context.Context) (map[string]string, error) {
	c, err := h.engine.Inspect(ctx, h.Name)
	if err != nil {
		return nil, err
	}
	return c.EnvMap(), nil
}

// DetectCrash returns the container logs if the container is not running.
// crashed is false for a running container.
func (h *Handle) DetectCrash(ctx context.Context) (crashed bool, logs string, err error) {
	running, err := h.Running(ctx)
	if err != nil {
		return false, "", err
	}
	if running {
		return false, "", nil
	}
	logs, err = h.engine.Logs(ctx, h.Name)
	if err != nil {
		return true, "", err
	}
	return true, logs, nil
}

// Execute runs the command inside the container.
func (h *Handle) Execute(ctx context.Context, stdout, stderr io.Writer, command ...string) error {
	h.log.Debug("executing in container", zap.String("container", h.Name), zap.Strings("command", command))
	return h.engine.Exec(ctx, h.Name, command, stdout, stderr)
}

// Check prints a line with an ok or fail marker telling whether the
// container is running.
func (h *Handle) Check(ctx context.Context, out io.Writer) bool {
	running, err := h.Running(ctx)
	if err != nil {
		h.log.Warn("container check failed", zap.String("container", h.Name), zap.Error(err))
	}
	fmt.Fprintf(out, "%s\n", Marker(fmt.Sprintf("%s %s", h.Kind, h.Name), running))
	return running
}

// Marker appends ✅ or ❌ to msg.
func Marker(msg string, ok bool) string {
	if ok {
		return msg + ":✅"
	}
	return msg + ":❌"
}
