package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/schedule"
	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// NewNamesCmd creates the names command.
func NewNamesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "names <deployment-group> <deployment-id>",
		Short: "Print the resource names derived for a deployment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := deploymentArg(args[0], args[1])
			if err != nil {
				return err
			}
			return printNames(cmd.OutOrStdout(), schedule.ArtifactsFor(d), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func printNames(w io.Writer, names types.Artifacts, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	case "yaml":
		return yaml.NewEncoder(w).Encode(names)
	case "text":
		bold := color.New(color.Bold)
		_, _ = bold.Fprintf(w, "Auto Scaling group: ")
		_, _ = fmt.Fprintln(w, names.AutoScalingGroup)
		_, _ = bold.Fprintf(w, "Rule:               ")
		_, _ = fmt.Fprintln(w, names.RuleName)
		_, _ = bold.Fprintf(w, "Target id:          ")
		_, _ = fmt.Fprintln(w, names.TargetID)
		_, _ = bold.Fprintf(w, "Statement id:       ")
		_, _ = fmt.Fprintln(w, names.StatementID)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}
