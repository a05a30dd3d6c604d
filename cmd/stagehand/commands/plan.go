package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stagehand/internal/app"
)

const targetUsage = `A launch is named either by a descriptor path or by a package and the
name of a file in its share/<package>/launch directory. Arguments are
overridden with trailing name:=value pairs.`

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan (<descriptor> | <package> <launch-file>) [name:=value...]",
		Short: "Resolve a launch and print its plan",
		Long:  "Resolve a launch and print the processes it would start.\n\n" + targetUsage,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			save, _ := cmd.Flags().GetBool("save")
			watch, _ := cmd.Flags().GetBool("watch")

			return c.app.Plan(cmd.Context(), app.PlanOptions{
				ResolveOptions: resolveOptions(cmd, args),
				Save:           save,
				Watch:          watch,
			})
		},
	}
	addResolveFlags(cmd)
	cmd.Flags().BoolP("save", "s", false, "Store the plan under .stagehand/plans for a later launch --plan")
	cmd.Flags().BoolP("watch", "w", false, "Re-resolve whenever a descriptor changes")
	return cmd
}
