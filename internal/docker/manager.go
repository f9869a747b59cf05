package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"
)

// Manager handles all interactions with the Docker Daemon
type Manager struct {
	cli *client.Client
	log *zap.Logger
}

var _ Engine = (*Manager)(nil)

// NewManager creates a new Docker client connected to the local daemon
func NewManager(log *zap.Logger) (*Manager, error) {
	// FromEnv looks for standard env vars like DOCKER_HOST,
	// or defaults to the unix socket /var/run/docker.sock
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Manager{cli: cli, log: log}, nil
}

// Close releases the client connection.
func (m *Manager) Close() error {
	return m.cli.Close()
}

// Ping checks that the daemon answers.
func (m *Manager) Ping(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon not reachable: %w", err)
	}
	return nil
}

// ContainerMap returns all containers by name.
func (m *Manager) ContainerMap(ctx context.Context) (map[string]*Container, error) {
	list, err := m.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	out := make(map[string]*Container, len(list))
	for _, c := range list {
		for _, name := range c.Names {
			// c.Names[0] is usually "/mw-139-mw", strip the slash
			name = strings.TrimPrefix(name, "/")
			out[name] = &Container{
				ID:      c.ID,
				Name:    name,
				Image:   c.Image,
				Running: c.State == "running",
				Status:  c.Status,
			}
		}
	}
	return out, nil
}

// ListContainers returns the containers of a compose project.
func (m *Manager) ListContainers(ctx context.Context, project string) ([]types.Container, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("label", fmt.Sprintf("com.docker.compose.project=%s", project))

	return m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
}

// Inspect returns the current state, port bindings and environment of a container.
func (m *Manager) Inspect(ctx context.Context, name string) (*Container, error) {
	info, err := m.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, name)
		}
		return nil, fmt.Errorf("failed to inspect %s: %w", name, err)
	}
	c := &Container{ID: info.ID, Name: strings.TrimPrefix(info.Name, "/")}
	if info.State != nil {
		c.Running = info.State.Running
		c.Status = info.State.Status
	}
	if info.HostConfig != nil {
		c.Ports = info.HostConfig.PortBindings
	}
	if info.Config != nil {
		c.Image = info.Config.Image
		c.Env = info.Config.Env
	}
	return c, nil
}

// Stop stops a container using the daemon's default grace period.
func (m *Manager) Stop(ctx context.Context, name string) error {
	m.log.Debug("stopping container", zap.String("container", name))
	if err := m.cli.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return fmt.Errorf("failed to stop %s: %w", name, err)
	}
	return nil
}

// Remove deletes a container but keeps its volumes.
func (m *Manager) Remove(ctx context.Context, name string) error {
	m.log.Debug("removing container", zap.String("container", name))
	if err := m.cli.ContainerRemove(ctx, name, container.RemoveOptions{
		RemoveVolumes: false, // Keep the data!
		Force:         true,
	}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Exec runs cmd inside the container and copies its demultiplexed output.
func (m *Manager) Exec(ctx context.Context, name string, cmd []string, stdout, stderr io.Writer) error {
	created, err := m.cli.ContainerExecCreate(ctx, name, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create exec in %s: %w", name, err)
	}

	attached, err := m.cli.ContainerExecAttach(ctx, created.ID, types.ExecStartCheck{})
	if err != nil {
		return fmt.Errorf("failed to attach exec in %s: %w", name, err)
	}
	defer attached.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, attached.Reader); err != nil {
		return fmt.Errorf("error reading exec output of %s: %w", name, err)
	}

	inspect, err := m.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("failed to inspect exec in %s: %w", name, err)
	}
	if inspect.ExitCode != 0 {
		return &ExecError{Container: name, Command: cmd, ExitCode: inspect.ExitCode}
	}
	return nil
}

// Logs returns stdout and stderr of a container.
func (m *Manager) Logs(ctx context.Context, name string) (string, error) {
	reader, err := m.cli.ContainerLogs(ctx, name, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", fmt.Errorf("failed to get logs of %s: %w", name, err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, reader); err != nil {
		return buf.String(), fmt.Errorf("error reading logs of %s: %w", name, err)
	}
	return buf.String(), nil
}

// EnsureNetwork creates a bridge network if it doesn't exist
func (m *Manager) EnsureNetwork(ctx context.Context, networkName string) error {
	networks, err := m.cli.NetworkList(ctx, types.NetworkListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}

	for _, net := range networks {
		if net.Name == networkName {
			m.log.Debug("network already exists", zap.String("network", networkName))
			return nil
		}
	}

	m.log.Info("creating network", zap.String("network", networkName))
	_, err = m.cli.NetworkCreate(ctx, networkName, types.NetworkCreate{
		Driver: "bridge", // Standard local network driver
	})
	if err != nil {
		return fmt.Errorf("failed to create network %s: %w", networkName, err)
	}
	return nil
}

// ConnectNetwork attaches a container to a network under the given alias.
func (m *Manager) ConnectNetwork(ctx context.Context, networkName, containerName, alias string) error {
	err := m.cli.NetworkConnect(ctx, networkName, containerName, &network.EndpointSettings{
		Aliases: []string{alias},
	})
	if err != nil {
		return fmt.Errorf("failed to connect %s to network %s: %w", containerName, networkName, err)
	}
	return nil
}
