// Package commands implements the CLI subcommands for the cleanupctl binary.
package commands

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/cleanup"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/config"
	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// newCleaner builds a Cleaner for the CLI. Tests replace it with one backed
// by fakes.
var newCleaner = awsCleaner

func awsCleaner(ctx context.Context, cfg *config.CLIConfig) (*cleanup.Cleaner, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return cleanup.New(
		autoscaling.NewFromConfig(awsCfg),
		eventbridge.NewFromConfig(awsCfg),
		lambdasvc.NewFromConfig(awsCfg),
		cfg.KeepAlive,
	), nil
}

// awsFlags are the flags shared by commands that talk to AWS. Set flags
// override cleanupctl.yaml.
type awsFlags struct {
	configDir   string
	functionARN string
	region      string
	profile     string
	keepAlive   int
}

func (f *awsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configDir, "config-dir", ".", "directory containing "+config.FileName)
	cmd.Flags().StringVar(&f.functionARN, "function-arn", "", "ARN of the cleanup Lambda")
	cmd.Flags().StringVar(&f.region, "region", "", "AWS region")
	cmd.Flags().StringVar(&f.profile, "profile", "", "AWS shared config profile")
	cmd.Flags().IntVar(&f.keepAlive, "keep-alive", 0, "minutes before the scheduled cleanup fires")
}

// load merges cleanupctl.yaml with the flags. When needARN is set it also
// checks that a function ARN is known.
func (f *awsFlags) load(needARN bool) (*config.CLIConfig, error) {
	cfg, err := config.LoadFile(f.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if f.functionARN != "" {
		cfg.FunctionARN = f.functionARN
	}
	if f.region != "" {
		cfg.Region = f.region
	}
	if f.profile != "" {
		cfg.Profile = f.profile
	}
	if f.keepAlive > 0 {
		cfg.KeepAlive = f.keepAlive
	}
	if needARN && cfg.FunctionARN == "" {
		return nil, fmt.Errorf("function ARN is required: set --function-arn or functionArn in %s", config.FileName)
	}
	return cfg, nil
}

func deploymentArg(group, id string) (types.Deployment, error) {
	d := types.Deployment{ID: id, Group: group}
	if err := d.Validate(); err != nil {
		return types.Deployment{}, err
	}
	return d, nil
}
