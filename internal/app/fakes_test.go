package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/docker/go-connections/nat"

	"github.com/sarth-shah20/mwdocker/internal/docker"
	"github.com/sarth-shah20/mwdocker/internal/webscrape"
)

type fakeEngine struct {
	mu         sync.Mutex
	containers map[string]*docker.Container
	logs       map[string]string
	execs      [][]string
	stopped    []string
	removed    []string
	networks   []string
	connects   [][3]string

	ExecFunc    func(name string, cmd []string) error
	ConnectFunc func(network, container, alias string) error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{containers: map[string]*docker.Container{}, logs: map[string]string{}}
}

func (f *fakeEngine) add(name string, running bool, hostPort string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &docker.Container{Name: name, Running: running}
	if hostPort != "" {
		c.Ports = nat.PortMap{"80/tcp": []nat.PortBinding{{HostPort: hostPort}}}
	}
	f.containers[name] = c
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

func (f *fakeEngine) Stop(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, name)
	if c, ok := f.containers[name]; ok {
		c.Running = false
		return nil
	}
	return errors.New("no such container")
}

func (f *fakeEngine) Remove(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, name)
	delete(f.containers, name)
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, name string, cmd []string, stdout, stderr io.Writer) error {
	f.mu.Lock()
	f.execs = append(f.execs, cmd)
	f.mu.Unlock()
	if f.ExecFunc != nil {
		return f.ExecFunc(name, cmd)
	}
	return nil
}

func (f *fakeEngine) Logs(ctx context.Context, name string) (string, error) {
	return f.logs[name], nil
}

func (f *fakeEngine) EnsureNetwork(ctx context.Context, name string) error {
	f.networks = append(f.networks, name)
	return nil
}

func (f *fakeEngine) ConnectNetwork(ctx context.Context, network, container, alias string) error {
	f.connects = append(f.connects, [3]string{network, container, alias})
	if f.ConnectFunc != nil {
		return f.ConnectFunc(network, container, alias)
	}
	return nil
}

// fakeCompose records calls and the working directory they ran in.
type fakeCompose struct {
	calls []string
	dirs  []string

	UpFunc   func() error
	DownFunc func() error
}

func (c *fakeCompose) record(call string) {
	dir, _ := os.Getwd()
	c.calls = append(c.calls, call)
	c.dirs = append(c.dirs, dir)
}

func (c *fakeCompose) IsInstalled(ctx context.Context) bool { return true }

func (c *fakeCompose) Build(ctx context.Context) error {
	c.record("build")
	return nil
}

func (c *fakeCompose) Up(ctx context.Context, detach, forceRecreate bool) error {
	call := "up"
	if forceRecreate {
		call += " --force-recreate"
	}
	c.record(call)
	if c.UpFunc != nil {
		return c.UpFunc()
	}
	return nil
}

func (c *fakeCompose) Down(ctx context.Context, removeVolumes bool) error {
	call := "down"
	if removeVolumes {
		call += " --volumes"
	}
	c.record(call)
	if c.DownFunc != nil {
		return c.DownFunc()
	}
	return nil
}

type fakeDB struct {
	failures int
	err      error
	calls    int
	closed   int
}

func (d *fakeDB) CurrentDatabase(ctx context.Context, timeout time.Duration) (string, error) {
	d.calls++
	if d.calls <= d.failures {
		return "", d.err
	}
	return "mw-9080_wiki", nil
}

func (d *fakeDB) Close() error {
	d.closed++
	return nil
}

type fakeReader struct {
	tables map[string][]webscrape.Record
	urls   []string
}

func (r *fakeReader) GetTables(ctx context.Context, url, headerTag string) (map[string][]webscrape.Record, error) {
	r.urls = append(r.urls, url)
	return r.tables, nil
}

func softwareTables(mw, db string) map[string][]webscrape.Record {
	return map[string][]webscrape.Record{
		"Installed software": {
			{"Product": "MediaWiki", "Version": mw},
			{"Product": "MariaDB", "Version": db},
		},
	}
}
