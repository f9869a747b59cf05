package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Runner executes a host command in the current working directory.
type Runner interface {
	Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// ComposeCLI drives `docker compose` for the compose file in the current
// working directory. Use InDir to select an instance's artifact directory.
type ComposeCLI struct {
	Runner Runner
	Stdout io.Writer
	Stderr io.Writer
	log    *zap.Logger
}

var _ Compose = (*ComposeCLI)(nil)

// NewComposeCLI returns a ComposeCLI streaming compose output to the
// process stdout and stderr.
func NewComposeCLI(log *zap.Logger) *ComposeCLI {
	return &ComposeCLI{Runner: ExecRunner{}, Stdout: os.Stdout, Stderr: os.Stderr, log: log}
}

func (c *ComposeCLI) run(ctx context.Context, args ...string) error {
	full := append([]string{"compose"}, args...)
	c.log.Debug("running docker", zap.Strings("args", full))
	if err := c.Runner.Run(ctx, c.Stdout, c.Stderr, "docker", full...); err != nil {
		return fmt.Errorf("docker compose %s failed: %w", args[0], err)
	}
	return nil
}

// IsInstalled reports whether `docker compose version` succeeds.
func (c *ComposeCLI) IsInstalled(ctx context.Context) bool {
	err := c.Runner.Run(ctx, io.Discard, io.Discard, "docker", "compose", "version")
	if err != nil {
		c.log.Debug("docker compose not available", zap.Error(err))
		return false
	}
	return true
}

// Build builds the images of the compose file.
func (c *ComposeCLI) Build(ctx context.Context) error {
	return c.run(ctx, "build")
}

// Up starts the compose application.
func (c *ComposeCLI) Up(ctx context.Context, detach, forceRecreate bool) error {
	args := []string{"up"}
	if detach {
		args = append(args, "--detach")
	}
	if forceRecreate {
		args = append(args, "--force-recreate")
	}
	return c.run(ctx, args...)
}

// Down stops the compose application, optionally removing its volumes.
func (c *ComposeCLI) Down(ctx context.Context, removeVolumes bool) error {
	args := []string{"down"}
	if removeVolumes {
		args = append(args, "--volumes")
	}
	return c.run(ctx, args...)
}
