package cluster

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docker/go-connections/nat"

	"github.com/sarth-shah20/mwdocker/internal/docker"
)

type fakeEngine struct {
	mu         sync.Mutex
	containers map[string]*docker.Container
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{containers: map[string]*docker.Container{}}
}

func (f *fakeEngine) add(c *docker.Container) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers[c.Name] = c
}

func (f *fakeEngine) ContainerMap(ctx context.Context) (map[string]*docker.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]*docker.Container{}
	for k, v := range f.containers {
		cp := *v
		out[k] = &cp
	}
	return out, nil
}

func (f *fakeEngine) Inspect(ctx context.Context, name string) (*docker.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return nil, docker.ErrContainerNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeEngine) Stop(ctx context.Context, name string) error { return nil }

func (f *fakeEngine) Remove(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.containers, name)
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, name string, cmd []string, stdout, stderr io.Writer) error {
	return nil
}

func (f *fakeEngine) Logs(ctx context.Context, name string) (string, error) { return "", nil }

func (f *fakeEngine) EnsureNetwork(ctx context.Context, name string) error { return nil }

func (f *fakeEngine) ConnectNetwork(ctx context.Context, network, container, alias string) error {
	return nil
}

// fakeCompose starts the containers of the project in the working
// directory, which is named after the container base name.
type fakeCompose struct {
	engine    *fakeEngine
	installed bool
	ups       []string
	downs     []string
	hostPort  map[string]string
}

func (c *fakeCompose) IsInstalled(ctx context.Context) bool { return c.installed }

func (c *fakeCompose) Build(ctx context.Context) error { return nil }

func (c *fakeCompose) Up(ctx context.Context, detach, forceRecreate bool) error {
	base := project()
	c.ups = append(c.ups, base)
	web := &docker.Container{Name: base + "-mw", Running: true}
	if port, ok := c.hostPort[base]; ok {
		web.Ports = nat.PortMap{"80/tcp": []nat.PortBinding{{HostPort: port}}}
	}
	c.engine.add(web)
	c.engine.add(&docker.Container{Name: base + "-db", Running: true})
	return nil
}

func (c *fakeCompose) Down(ctx context.Context, removeVolumes bool) error {
	c.downs = append(c.downs, project())
	return nil
}

func project() string {
	dir, _ := os.Getwd()
	return filepath.Base(dir)
}

type fakeDB struct {
	closed int
}

func (d *fakeDB) CurrentDatabase(ctx context.Context, timeout time.Duration) (string, error) {
	return "wiki", nil
}

func (d *fakeDB) Close() error {
	d.closed++
	return nil
}
