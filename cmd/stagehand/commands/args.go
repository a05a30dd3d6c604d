package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stagehand/internal/app"
)

func (c *CLI) newArgsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "args (<descriptor> | <package> <launch-file>)",
		Short: "List the arguments a launch descriptor declares",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Args(cmd.Context(), app.ArgsOptions{
				CommonOptions: commonOptions(cmd),
				Args:          args,
			})
		},
	}
}
