package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stagehand/internal/app"
)

func (c *CLI) newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch [(<descriptor> | <package> <launch-file>) [name:=value...]]",
		Short: "Resolve a launch and run its processes",
		Long: "Resolve a launch and run every process until they all exit or the " +
			"command is interrupted.\n\n" + targetUsage,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, _ := cmd.Flags().GetString("plan")
			if len(args) == 0 && planID == "" {
				_ = cmd.Help()
				return nil
			}
			return c.app.Launch(cmd.Context(), app.LaunchOptions{
				ResolveOptions: resolveOptions(cmd, args),
				PlanID:         planID,
			})
		},
	}
	addResolveFlags(cmd)
	cmd.Flags().StringP("plan", "p", "", "Run a plan stored by plan --save")
	return cmd
}
