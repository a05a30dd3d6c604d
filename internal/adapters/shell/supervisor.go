// Package shell runs launch plans as pty-attached child processes.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/ui/output"
	"go.trai.ch/stagehand/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Supervisor = (*Supervisor)(nil)

// DefaultGracePeriod is how long a process may take to exit after SIGTERM
// before it is killed.
const DefaultGracePeriod = 5 * time.Second

// Supervisor implements ports.Supervisor. Every process runs in its own pty;
// its output is copied line by line to a shared writer, prefixed with the
// node name.
type Supervisor struct {
	out    *termenv.Output
	logger ports.Logger

	mu sync.Mutex

	grace   time.Duration
	environ func() []string
	runID   func() string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithGracePeriod sets the SIGTERM to SIGKILL delay.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) { s.grace = d }
}

// WithEnviron replaces the inherited base environment.
func WithEnviron(environ func() []string) Option {
	return func(s *Supervisor) { s.environ = environ }
}

// WithRunID replaces the run id generator.
func WithRunID(runID func() string) Option {
	return func(s *Supervisor) { s.runID = runID }
}

// NewSupervisor creates a Supervisor writing process output to w.
func NewSupervisor(w io.Writer, logger ports.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		out:     output.New(w),
		logger:  logger,
		grace:   DefaultGracePeriod,
		environ: os.Environ,
		runID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the processes in plan order and blocks until they all exit,
// one fails, or ctx is cancelled. A failing process stops all others.
func (s *Supervisor) Run(ctx context.Context, plan *domain.LaunchPlan) error {
	if len(plan.Processes) == 0 {
		return nil
	}

	runID := s.runID()
	s.logger.Info("run " + runID + ": starting " + plural(len(plan.Processes), "process", "processes"))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	width := 0
	for _, ps := range plan.Processes {
		width = max(width, len(ps.Name))
	}

	for _, ps := range plan.Processes {
		proc, err := s.start(gctx, ps, runID, width)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}

		g.Go(func() error {
			err := proc.Wait()
			if err == nil {
				s.logger.Info(ps.Name + " exited")
				return nil
			}
			if gctx.Err() != nil {
				// Stopped by us.
				return nil
			}
			return processError(ps, err)
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		s.logger.Info("run " + runID + ": stopped")
	}
	return err
}

func (s *Supervisor) start(ctx context.Context, ps domain.ProcessSpec, runID string, width int) (*process, error) {
	if err := findExecutable(ps.ExecutablePath); err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrProcessFailed, "executable not found: "+err.Error()),
			"node", ps.Name), "path", ps.ExecutablePath)
	}

	//nolint:gosec // Executable comes from the resolved launch plan
	cmd := exec.CommandContext(ctx, ps.ExecutablePath, ps.Args...)
	cmd.Args[0] = ps.Executable
	cmd.Dir = ps.WorkingDir
	cmd.Env = environment(s.environ(), ps.Env, runID)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = s.grace

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrProcessFailed, "failed to start pty: "+err.Error()), "node", ps.Name)
	}

	w := &prefixWriter{s: s, prefix: s.prefix(ps.Name, width)}
	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		defer func() { _ = w.Close() }()
		_, _ = io.Copy(w, ptmx)
	}()

	return &process{cmd: cmd, ioDone: ioDone}, nil
}

func (s *Supervisor) prefix(name string, width int) string {
	padded := name
	for len(padded) < width {
		padded += " "
	}
	return s.out.String(padded+" |").Foreground(termenv.RGBColor(string(style.Accent))).String() + " "
}

func (s *Supervisor) writeLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.WriteString(line + "\n")
}

type process struct {
	cmd    *exec.Cmd
	ioDone <-chan struct{}
}

func (p *process) Wait() error {
	err := p.cmd.Wait()
	<-p.ioDone
	return err
}

func processError(ps domain.ProcessSpec, err error) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrProcessFailed, err.Error()), "node", ps.Name), "exit_code", exitCode)
}

// environment layers the node environment and the run id over base.
func environment(base []string, nodeEnv map[string]string, runID string) []string {
	env := make(map[string]string, len(base)+len(nodeEnv)+1)
	for _, entry := range base {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			env[k] = v
		}
	}
	for k, v := range nodeEnv {
		env[k] = v
	}
	env[domain.RunIDEnv] = runID

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	slices.Sort(out)
	return out
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
