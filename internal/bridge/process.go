package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

const shutdownGrace = 2 * time.Second

// ErrAssetNotFound means the renderer resource could not be located.
var ErrAssetNotFound = errors.New("bridge: renderer not found")

// Resolver turns the configured renderer resource into a loadable address.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Launcher starts the render surface at a resolved address.
type Launcher interface {
	Launch(ctx context.Context, address string) (Conn, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context) (string, error) { return f(ctx) }

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, address string) (Conn, error)

func (f LauncherFunc) Launch(ctx context.Context, address string) (Conn, error) {
	return f(ctx, address)
}

// ExecResolver locates the renderer executable. Name may be a path or a
// bare command looked up next to the running binary and then on PATH.
type ExecResolver struct {
	Name string
}

func (r ExecResolver) Resolve(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.Name == "" {
		return "", fmt.Errorf("%w: no renderer configured", ErrAssetNotFound)
	}

	if filepath.Base(r.Name) != r.Name {
		if _, err := os.Stat(r.Name); err != nil {
			return "", fmt.Errorf("%w: %v", ErrAssetNotFound, err)
		}
		return filepath.Abs(r.Name)
	}

	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), r.Name)
		if fi, err := os.Stat(sibling); err == nil && !fi.IsDir() {
			return sibling, nil
		}
	}

	path, err := exec.LookPath(r.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetNotFound, err)
	}
	return path, nil
}

// ProcessLauncher runs the renderer as a child process and speaks the bridge
// protocol over its stdin and stdout.
type ProcessLauncher struct {
	Args []string
	Env  []string
	// Stderr receives the child's stderr; discarded when nil.
	Stderr io.Writer
}

func (l ProcessLauncher) Launch(ctx context.Context, address string) (Conn, error) {
	cmd := exec.Command(address, l.Args...)
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Stderr = l.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("renderer stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("renderer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start renderer: %w", err)
	}

	return &processConn{StreamConn: NewStreamConn(stdout, stdin), cmd: cmd}, nil
}

type processConn struct {
	*StreamConn
	cmd      *exec.Cmd
	waitOnce sync.Once
	waitErr  error
}

func (p *processConn) wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
	})
	return p.waitErr
}

// Err reports the child's exit status once its output has ended.
func (p *processConn) Err() error {
	if err := p.StreamConn.Err(); err != nil {
		return err
	}
	if err := p.wait(); err != nil {
		return fmt.Errorf("renderer exited: %w", err)
	}
	return nil
}

// Close closes the pipes, which the renderer treats as shutdown, and kills
// it if it does not exit.
func (p *processConn) Close() error {
	err := p.StreamConn.Close()
	done := make(chan struct{})
	go func() {
		_ = p.wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		_ = p.cmd.Process.Kill()
		<-done
	}
	return err
}
