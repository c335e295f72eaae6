package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "cleanupctl",
		Short: "Operate the CodeDeploy failed-deployment cleanup function by hand",
		Long: `cleanupctl inspects and drives the cleanup of Auto Scaling groups left behind
by failed CodeDeploy blue/green deployments. It derives the same resource names
as the Lambda, previews schedule expressions, and can schedule or run a cleanup
directly when a notification or a scheduled invocation was lost.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewNamesCmd(),
		commands.NewCronCmd(),
		commands.NewScheduleCmd(),
		commands.NewCleanupCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
