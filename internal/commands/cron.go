package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/schedule"
)

// NewCronCmd creates the cron command.
func NewCronCmd() *cobra.Command {
	var (
		minutes int
		at      string
	)

	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Preview the schedule expression a notification would produce",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes <= 0 {
				return fmt.Errorf("--minutes must be positive")
			}
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parsing --at: %w", err)
				}
				now = t
			}

			expr := schedule.CronAt(now, minutes)
			fire, err := schedule.NextFire(expr, now)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, expr)
			_, _ = fmt.Fprintf(w, "fires at %s\n", fire.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 60, "minutes from now")
	cmd.Flags().StringVar(&at, "at", "", "reference time in RFC 3339 (default now)")
	return cmd
}
