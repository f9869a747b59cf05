package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
)

var (
	// ErrContainerNotFound is returned when a named container does not exist.
	ErrContainerNotFound = errors.New("container not found")

	// ErrComposeNotInstalled is returned when `docker compose` is not usable.
	ErrComposeNotInstalled = errors.New("docker compose up needs to be working")

	// ErrWaitTimeout is matched by StateTimeoutError.
	ErrWaitTimeout = errors.New("timeout waiting for container state")
)

// Engine is the part of the container runtime used to manage wiki containers.
type Engine interface {
	// ContainerMap returns all containers (running or not) by name.
	ContainerMap(ctx context.Context) (map[string]*Container, error)
	// Inspect returns the current state of the named container.
	Inspect(ctx context.Context, name string) (*Container, error)
	Stop(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	// Exec runs cmd inside the container, streaming its output.
	Exec(ctx context.Context, name string, cmd []string, stdout, stderr io.Writer) error
	Logs(ctx context.Context, name string) (string, error)
	EnsureNetwork(ctx context.Context, name string) error
	ConnectNetwork(ctx context.Context, network, container, alias string) error
}

// Compose runs docker compose in the current working directory.
type Compose interface {
	IsInstalled(ctx context.Context) bool
	Build(ctx context.Context) error
	Up(ctx context.Context, detach, forceRecreate bool) error
	Down(ctx context.Context, removeVolumes bool) error
}

// Container is a snapshot of a container's engine state.
type Container struct {
	ID      string
	Name    string
	Image   string
	Running bool
	Status  string
	Ports   nat.PortMap
	Env     []string
}

// HostPort returns the host port bound to the given container tcp port.
func (c *Container) HostPort(localPort int) (string, bool) {
	port, err := nat.NewPort("tcp", fmt.Sprint(localPort))
	if err != nil {
		return "", false
	}
	bindings, ok := c.Ports[port]
	if !ok || len(bindings) == 0 {
		return "", false
	}
	return bindings[0].HostPort, true
}

// EnvMap returns the container environment as key/value pairs.
func (c *Container) EnvMap() map[string]string {
	env := make(map[string]string, len(c.Env))
	for _, kv := range c.Env {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env
}

// StateTimeoutError reports a container that did not reach a running state in time.
type StateTimeoutError struct {
	Container string
	Running   bool
	Timeout   time.Duration
}

func (e *StateTimeoutError) Error() string {
	state := "stopped"
	if e.Running {
		state = "running"
	}
	return fmt.Sprintf("container '%s' did not reach state '%s' within %s", e.Container, state, e.Timeout)
}

func (e *StateTimeoutError) Is(target error) bool { return target == ErrWaitTimeout }

// ExecError is returned when a command inside a container exits non zero.
type ExecError struct {
	Container string
	Command   []string
	ExitCode  int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command %q in container %s exited with code %d", strings.Join(e.Command, " "), e.Container, e.ExitCode)
}
