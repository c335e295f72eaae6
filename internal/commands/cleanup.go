package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// NewCleanupCmd creates the cleanup command.
func NewCleanupCmd() *cobra.Command {
	var (
		flags       awsFlags
		parallelism int
		groupOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup <deployment-group> <deployment-id>...",
		Short: "Tear down the schedule and Auto Scaling group of failed deployments now",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(!groupOnly)
			if err != nil {
				return err
			}
			if parallelism > 0 {
				cfg.Parallelism = parallelism
			}

			group := args[0]
			deployments := make([]types.Deployment, 0, len(args)-1)
			for _, id := range args[1:] {
				d, err := deploymentArg(group, id)
				if err != nil {
					return err
				}
				deployments = append(deployments, d)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			cleaner, err := newCleaner(ctx, cfg)
			if err != nil {
				return err
			}

			outcomes := make([]types.Outcome, len(deployments))
			errs := make([]error, len(deployments))

			var g errgroup.Group
			g.SetLimit(cfg.Parallelism)
			for i, d := range deployments {
				g.Go(func() error {
					if groupOnly {
						outcomes[i], errs[i] = cleaner.DeleteGroup(ctx, d)
					} else {
						outcomes[i], errs[i] = cleaner.Cleanup(ctx, d, cfg.FunctionARN)
					}
					return nil
				})
			}
			_ = g.Wait()

			w := cmd.OutOrStdout()
			var failed []error
			for i, d := range deployments {
				if errs[i] != nil {
					_, _ = color.New(color.FgRed).Fprintf(w, "✗ %s/%s: %v\n", d.Group, d.ID, errs[i])
					failed = append(failed, fmt.Errorf("%s: %w", d.ID, errs[i]))
					continue
				}
				_, _ = color.New(color.FgGreen).Fprintf(w, "✓ %s/%s: %s\n", d.Group, d.ID, outcomes[i])
			}
			return errors.Join(failed...)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&groupOnly, "group-only", false, "only delete the Auto Scaling group; use when the schedule is already gone")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "deployments cleaned up concurrently (default from config)")
	return cmd
}
