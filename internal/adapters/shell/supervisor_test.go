package shell_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/shell"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

// syncBuffer guards a bytes.Buffer read by the test while processes write.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func shProcess(name, script string) domain.ProcessSpec {
	return domain.ProcessSpec{
		Name:           name,
		Package:        "demo",
		Executable:     "sh",
		ExecutablePath: "/bin/sh",
		Args:           []string{"-c", script},
	}
}

func newSupervisor(t *testing.T, out *syncBuffer, opts ...shell.Option) *shell.Supervisor {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	return shell.NewSupervisor(out, logger, opts...)
}

func metadata(t *testing.T, err error) map[string]any {
	t.Helper()
	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	return zErr.Metadata()
}

func TestSupervisor_PrefixesOutput(t *testing.T) {
	out := &syncBuffer{}
	sup := newSupervisor(t, out)

	err := sup.Run(context.Background(), &domain.LaunchPlan{Processes: []domain.ProcessSpec{
		shProcess("/a", "echo one; printf partial"),
		shProcess("/lidar", "echo two"),
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.ElementsMatch(t, []string{"/a     | one", "/a     | partial", "/lidar | two"}, lines)
}

func TestSupervisor_Environment(t *testing.T) {
	out := &syncBuffer{}
	sup := newSupervisor(t, out,
		shell.WithRunID(func() string { return "run-1" }),
		shell.WithEnviron(func() []string { return []string{"PATH=/usr/bin:/bin", "FOO=base"} }),
	)

	ps := shProcess("/a", `echo "$STAGEHAND_RUN_ID $FOO $BAR"`)
	ps.Env = map[string]string{"FOO": "node"}

	require.NoError(t, sup.Run(context.Background(), &domain.LaunchPlan{Processes: []domain.ProcessSpec{ps}}))
	assert.Equal(t, "/a | run-1 node \n", out.String())
}

func TestSupervisor_WorkingDir(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	out := &syncBuffer{}
	sup := newSupervisor(t, out)

	ps := shProcess("/a", "pwd")
	ps.WorkingDir = dir

	require.NoError(t, sup.Run(context.Background(), &domain.LaunchPlan{Processes: []domain.ProcessSpec{ps}}))
	assert.Equal(t, "/a | "+dir+"\n", out.String())
}

func TestSupervisor_FailureStopsOthers(t *testing.T) {
	out := &syncBuffer{}
	sup := newSupervisor(t, out, shell.WithGracePeriod(time.Second))

	start := time.Now()
	err := sup.Run(context.Background(), &domain.LaunchPlan{Processes: []domain.ProcessSpec{
		shProcess("/control/mpc_controller", "sleep 0.2; exit 3"),
		shProcess("/lidar_front/vlp16_front", "sleep 30"),
	}})
	require.ErrorIs(t, err, domain.ErrProcessFailed)
	assert.Less(t, time.Since(start), 10*time.Second)

	meta := metadata(t, err)
	assert.Equal(t, "/control/mpc_controller", meta["node"])
	assert.Equal(t, 3, meta["exit_code"])
}

func TestSupervisor_MissingExecutable(t *testing.T) {
	out := &syncBuffer{}
	sup := newSupervisor(t, out)

	ps := shProcess("/a", "true")
	ps.ExecutablePath = filepath.Join(t.TempDir(), "lib", "demo", "missing_exe")

	err := sup.Run(context.Background(), &domain.LaunchPlan{Processes: []domain.ProcessSpec{
		shProcess("/first", "sleep 30"),
		ps,
	}})
	require.ErrorIs(t, err, domain.ErrProcessFailed)
	assert.Equal(t, "/a", metadata(t, err)["node"])
}

func TestSupervisor_ContextCancel(t *testing.T) {
	out := &syncBuffer{}
	sup := newSupervisor(t, out, shell.WithGracePeriod(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sup.Run(ctx, &domain.LaunchPlan{Processes: []domain.ProcessSpec{
		shProcess("/a", "sleep 30"),
		shProcess("/b", "sleep 30"),
	}})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestSupervisor_EmptyPlan(t *testing.T) {
	sup := newSupervisor(t, &syncBuffer{})
	require.NoError(t, sup.Run(context.Background(), &domain.LaunchPlan{}))
}
