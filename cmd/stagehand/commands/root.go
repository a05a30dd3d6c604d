// Package commands implements the CLI commands for stagehand.
package commands

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go.trai.ch/stagehand/internal/app"
	"go.trai.ch/stagehand/internal/build"
)

// CLI represents the command line interface for stagehand.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	onJSON  func(bool)
}

// Application represents the application logic interface.
type Application interface {
	Plan(ctx context.Context, opts app.PlanOptions) error
	Args(ctx context.Context, opts app.ArgsOptions) error
	Launch(ctx context.Context, opts app.LaunchOptions) error
	Show(ctx context.Context, id string, output string) error
}

// Option configures the CLI.
type Option func(*CLI)

// WithLogFormat registers the callback invoked with the value of --json-logs
// before any command runs.
func WithLogFormat(fn func(json bool)) Option {
	return func(c *CLI) {
		c.onJSON = fn
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:   "stagehand",
		Short: "Resolve ROS 2 launch descriptors into launch plans",
		Long: "stagehand resolves launch descriptors, their arguments and includes " +
			"into a flat plan of processes, and can run that plan.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringArray("prefix", nil, "Install prefix searched before AMENT_PREFIX_PATH (repeatable)")
	flags.StringArray("package", nil, "Package location as NAME=PREFIX, searched first (repeatable)")
	flags.StringP("output", "o", "auto", "Output format: auto, text or json")
	flags.Bool("trace", false, "Log every resolution span with its duration")
	flags.Bool("json-logs", false, "Write logs as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.onJSON == nil {
			return
		}
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		c.onJSON(jsonLogs)
	}

	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newArgsCmd())
	rootCmd.AddCommand(c.newLaunchCmd())
	rootCmd.AddCommand(c.newShowCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func commonOptions(cmd *cobra.Command) app.CommonOptions {
	prefixes, _ := cmd.Flags().GetStringArray("prefix")
	packages, _ := cmd.Flags().GetStringArray("package")
	output, _ := cmd.Flags().GetString("output")
	trace, _ := cmd.Flags().GetBool("trace")
	return app.CommonOptions{
		Prefixes: prefixes,
		Packages: packages,
		Output:   output,
		Trace:    trace,
	}
}

func addResolveFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Maximum number of descriptors loaded concurrently")
}

func resolveOptions(cmd *cobra.Command, args []string) app.ResolveOptions {
	jobs, _ := cmd.Flags().GetInt("jobs")
	return app.ResolveOptions{
		CommonOptions: commonOptions(cmd),
		Args:          args,
		Jobs:          jobs,
	}
}
