package docker

import (
	"context"
	"io"
	"sync"
)

// fakeEngine is an in-memory Engine. Func fields override the default
// behaviour of the map backed implementation.
type fakeEngine struct {
	mu         sync.Mutex
	containers map[string]*Container

	InspectFunc func(name string) (*Container, error)
	ExecFunc    func(name string, cmd []string, stdout, stderr io.Writer) error
	logs        map[string]string
}

func newFakeEngine(cs ...*Container) *fakeEngine {
	f := &fakeEngine{containers: map[string]*Container{}, logs: map[string]string{}}
	for _, c := range cs {
		f.containers[c.Name] = c
	}
	return f
}

func (f *fakeEngine) ContainerMap(ctx context.Context) (map[string]*Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*Container, len(f.containers))
	for k, v := range f.containers {
		cp := *v
		out[k] = &cp
	}
	return out, nil
}

func (f *fakeEngine) Inspect(ctx context.Context, name string) (*Container, error) {
	if f.InspectFunc != nil {
		return f.InspectFunc(name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return nil, ErrContainerNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeEngine) Stop(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.containers[name]; ok {
		c.Running = false
	}
	return nil
}

func (f *fakeEngine) Remove(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.containers, name)
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, name string, cmd []string, stdout, stderr io.Writer) error {
	if f.ExecFunc != nil {
		return f.ExecFunc(name, cmd, stdout, stderr)
	}
	return nil
}

func (f *fakeEngine) Logs(ctx context.Context, name string) (string, error) {
	return f.logs[name], nil
}

func (f *fakeEngine) EnsureNetwork(ctx context.Context, name string) error { return nil }

func (f *fakeEngine) ConnectNetwork(ctx context.Context, network, container, alias string) error {
	return nil
}

// fakeRunner records the commands it was asked to run.
type fakeRunner struct {
	calls   [][]string
	RunFunc func(name string, args ...string) error
}

func (r *fakeRunner) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.RunFunc != nil {
		return r.RunFunc(name, args...)
	}
	return nil
}
