// Package app implements the application layer for stagehand.
package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/stagehand/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/index"     //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/render"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/engine/assembler"
	"go.trai.ch/stagehand/internal/engine/emitter"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader     ports.DescriptorLoader
	index      ports.PackageIndex
	store      ports.PlanStore
	supervisor ports.Supervisor
	tracer     ports.Tracer
	logger     ports.Logger
	watchers   watcher.Factory

	stdout   io.Writer
	environ  func() []string
	workDir  func() (string, error)
	detect   func() detector.OutputMode
	debounce time.Duration
}

// New creates a new App instance.
func New(
	loader ports.DescriptorLoader,
	idx ports.PackageIndex,
	store ports.PlanStore,
	supervisor ports.Supervisor,
	tracer ports.Tracer,
	logger ports.Logger,
	watchers watcher.Factory,
) *App {
	return &App{
		loader:     loader,
		index:      idx,
		store:      store,
		supervisor: supervisor,
		tracer:     tracer,
		logger:     logger,
		watchers:   watchers,
		stdout:     os.Stdout,
		environ:    os.Environ,
		workDir:    os.Getwd,
		detect:     detector.DetectEnvironment,
		debounce:   watcher.DefaultDebounceWindow,
	}
}

// WithOutput sets where plans and listings are printed.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithEnviron replaces the process environment snapshot used by env() substitutions.
func (a *App) WithEnviron(environ func() []string) *App {
	a.environ = environ
	return a
}

// WithWorkDir fixes the working directory used for relative paths and the plan store.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = func() (string, error) { return dir, nil }
	return a
}

// WithDetector replaces terminal detection for --output=auto.
func (a *App) WithDetector(detect func() detector.OutputMode) *App {
	a.detect = detect
	return a
}

// WithDebounce sets the watch mode debounce window.
func (a *App) WithDebounce(d time.Duration) *App {
	a.debounce = d
	return a
}

// CommonOptions are shared by every command that reads descriptors.
type CommonOptions struct {
	// Prefixes are install prefixes searched before AMENT_PREFIX_PATH.
	Prefixes []string
	// Packages are NAME=PREFIX mappings searched first.
	Packages []string
	// Output is auto, text or json.
	Output string
	// Trace reports every span through the logger.
	Trace bool
}

// ResolveOptions configures assembly of one launch.
type ResolveOptions struct {
	CommonOptions
	// Args are the positional arguments: a descriptor path or a package and
	// launch file name, followed by name:=value overrides.
	Args []string
	// Jobs bounds concurrent include expansion.
	Jobs int
}

// PlanOptions configures the plan command.
type PlanOptions struct {
	ResolveOptions
	Save  bool
	Watch bool
}

// LaunchOptions configures the launch command.
type LaunchOptions struct {
	ResolveOptions
	// PlanID runs a stored plan instead of assembling one.
	PlanID string
}

// ArgsOptions configures the args command.
type ArgsOptions struct {
	CommonOptions
	// Args is a descriptor path or a package and launch file name.
	Args []string
}

// Plan assembles a launch and prints the plan.
func (a *App) Plan(ctx context.Context, opts PlanOptions) error {
	out, err := a.renderer(opts.Output)
	if err != nil {
		return err
	}
	defer a.startTracing(opts.Trace)()

	workDir, err := a.workDir()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}

	res, err := a.plan(ctx, opts, out, workDir)
	if err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	return a.watch(ctx, opts, out, workDir, res.Sources())
}

func (a *App) plan(ctx context.Context, opts PlanOptions, out *render.Renderer, workDir string) (*assembler.Result, error) {
	plan, res, err := a.resolve(ctx, opts.ResolveOptions, workDir)
	if err != nil {
		return nil, err
	}
	if err := out.Plan(plan, res.Topology.Arguments); err != nil {
		return nil, zerr.Wrap(err, "failed to print plan")
	}
	if opts.Save {
		if err := a.store.Put(workDir, plan); err != nil {
			return nil, err
		}
		if err := out.Saved(plan.ID); err != nil {
			return nil, zerr.Wrap(err, "failed to print plan")
		}
	}
	return res, nil
}

// Args prints the arguments declared by a descriptor.
func (a *App) Args(_ context.Context, opts ArgsOptions) error {
	out, err := a.renderer(opts.Output)
	if err != nil {
		return err
	}

	workDir, err := a.workDir()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}

	target, overrides, err := SplitArgs(opts.Args)
	if err != nil {
		return err
	}
	if len(overrides) > 0 {
		return zerr.Wrap(domain.ErrInvalidTarget, "args does not take name:=value overrides")
	}

	idx, err := a.packageIndex(opts.CommonOptions)
	if err != nil {
		return err
	}
	root, err := resolveTarget(target, idx, workDir)
	if err != nil {
		return err
	}

	desc, err := a.loader.Load(root)
	if err != nil {
		return err
	}
	return out.Arguments(desc.Source, desc.Arguments)
}

// Launch assembles a launch, or loads a stored plan, and runs it until all
// processes exit or ctx is cancelled.
func (a *App) Launch(ctx context.Context, opts LaunchOptions) error {
	defer a.startTracing(opts.Trace)()

	workDir, err := a.workDir()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}

	var plan *domain.LaunchPlan
	if opts.PlanID != "" {
		if len(opts.Args) > 0 {
			return zerr.Wrap(domain.ErrInvalidTarget, "--plan does not take a descriptor or overrides")
		}
		plan, err = a.store.Get(workDir, opts.PlanID)
	} else {
		plan, _, err = a.resolve(ctx, opts.ResolveOptions, workDir)
	}
	if err != nil {
		return err
	}

	a.logger.Info("launching plan " + plan.ID + " from " + plan.Root)
	return a.supervisor.Run(ctx, plan)
}

// Show prints a stored plan.
func (a *App) Show(_ context.Context, id string, output string) error {
	out, err := a.renderer(output)
	if err != nil {
		return err
	}

	workDir, err := a.workDir()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}

	plan, err := a.store.Get(workDir, id)
	if err != nil {
		return err
	}
	return out.Plan(plan, nil)
}

// resolve assembles the launch named by opts and emits its plan.
func (a *App) resolve(ctx context.Context, opts ResolveOptions, workDir string) (*domain.LaunchPlan, *assembler.Result, error) {
	target, overrides, err := SplitArgs(opts.Args)
	if err != nil {
		return nil, nil, err
	}

	idx, err := a.packageIndex(opts.CommonOptions)
	if err != nil {
		return nil, nil, err
	}
	root, err := resolveTarget(target, idx, workDir)
	if err != nil {
		return nil, nil, err
	}

	res, err := assembler.New(a.loader, idx, a.tracer, a.logger).Assemble(ctx, root, assembler.Options{
		CommandLine: overrides,
		Env:         envMap(a.environ()),
		Jobs:        opts.Jobs,
	})
	if err != nil {
		return nil, nil, err
	}

	plan, err := emitter.Emit(res.Topology, emitter.Options{WorkingDir: workDir})
	if err != nil {
		return nil, nil, err
	}
	return plan, res, nil
}

func (a *App) renderer(flag string) (*render.Renderer, error) {
	mode, err := detector.ResolveMode(a.detect(), flag)
	if err != nil {
		return nil, err
	}
	return render.New(a.stdout, mode), nil
}

// startTracing installs the span bridge when enabled and returns its shutdown.
func (a *App) startTracing(enabled bool) func() {
	if !enabled {
		return func() {}
	}
	shutdown := telemetry.Install(telemetry.NewBridge(a.logger))
	return func() { _ = shutdown(context.Background()) }
}

// packageIndex layers the command line package options over the base index.
func (a *App) packageIndex(opts CommonOptions) (ports.PackageIndex, error) {
	static, err := index.ParseMapping(opts.Packages)
	if err != nil {
		return nil, err
	}
	return index.Chain{static, index.NewAment(opts.Prefixes), a.index}, nil
}

// resolveTarget turns a descriptor path or a package and launch file name
// into an absolute descriptor path.
func resolveTarget(target []string, idx ports.PackageIndex, workDir string) (string, error) {
	switch len(target) {
	case 1:
		path := target[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		return path, nil
	case 2:
		return resolver.New(idx).JoinShare(target[0], filepath.Join(domain.LaunchDirName, target[1]))
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidTarget, "wrong number of positional arguments"),
			"args", strings.Join(target, " "))
	}
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		if k, v, ok := strings.Cut(entry, "="); ok {
			env[k] = v
		}
	}
	return env
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
