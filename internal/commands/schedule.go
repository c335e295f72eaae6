package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	var flags awsFlags

	cmd := &cobra.Command{
		Use:   "schedule <deployment-group> <deployment-id>",
		Short: "Schedule cleanup for a failed deployment, as a FAILED notification would",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := deploymentArg(args[0], args[1])
			if err != nil {
				return err
			}
			cfg, err := flags.load(true)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cleaner, err := newCleaner(ctx, cfg)
			if err != nil {
				return err
			}
			outcome, err := cleaner.Notify(ctx, types.DeploymentNotification{
				DeploymentID:        d.ID,
				DeploymentGroupName: d.Group,
				Status:              types.DeploymentFailed,
			}, cfg.FunctionARN)
			if err != nil {
				return fmt.Errorf("scheduling cleanup: %w", err)
			}

			w := cmd.OutOrStdout()
			switch outcome {
			case types.OutcomeScheduled:
				_, _ = color.New(color.FgGreen).Fprintf(w, "scheduled cleanup of %s/%s in %d minutes\n", d.Group, d.ID, cleaner.KeepAlive())
			default:
				_, _ = color.New(color.FgYellow).Fprintf(w, "%s/%s: %s\n", d.Group, d.ID, outcome)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
