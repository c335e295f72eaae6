package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/alert"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/cleanup"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/config"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/telemetry"
	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// Deps holds shared dependencies for the Lambda handler.
type Deps struct {
	Config    *config.Config
	Cleaner   *cleanup.Cleaner
	AlertFn   func(context.Context, types.Alert)
	Telemetry *telemetry.Provider
	Logger    *slog.Logger
}

// Init creates shared dependencies from environment variables.
// Reads: KEEP_ALIVE, ALERT_TOPIC_ARN, LOG_LEVEL, OTEL_EXPORTER_OTLP_ENDPOINT, SERVICE_NAME
func Init(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	tel, err := telemetry.New(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	// Alerts always reach the function's log stream; SNS is opt-in.
	dispatcher := alert.NewDispatcher(logger, alert.NewConsoleSink())
	if cfg.AlertTopicARN != "" {
		snsSink, err := alert.NewSNSSink(sns.NewFromConfig(awsCfg), cfg.AlertTopicARN)
		if err != nil {
			return nil, fmt.Errorf("creating SNS sink: %w", err)
		}
		dispatcher.AddSink(snsSink)
	}

	cleaner := cleanup.New(
		autoscaling.NewFromConfig(awsCfg),
		eventbridge.NewFromConfig(awsCfg),
		lambdasvc.NewFromConfig(awsCfg),
		cfg.KeepAlive,
		cleanup.WithLogger(logger),
		cleanup.WithTelemetry(tel),
	)

	return &Deps{
		Config:    cfg,
		Cleaner:   cleaner,
		AlertFn:   dispatcher.AlertFunc(),
		Telemetry: tel,
		Logger:    logger,
	}, nil
}
