// Package cleanup implements the two phases of failed-deployment cleanup:
// Notify schedules a deferred re-invocation of the function for a failed
// CodeDeploy deployment, and Cleanup tears that schedule down and removes the
// Auto Scaling Group the deployment left behind.
//
// All state between the phases lives in the scheduled rule's target input
// and in names derived from the deployment by the schedule package.
package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/metrics"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/telemetry"
)

var (
	// ErrUnexpectedStatus is returned when an AWS call succeeds with an HTTP
	// status other than the one the operation documents.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrFailedEntries is returned when PutTargets or RemoveTargets reports
	// per-target failures.
	ErrFailedEntries = errors.New("failed entries")
	// ErrAttachedToLoadBalancer is returned when the Auto Scaling Group is
	// still attached to a load balancer or target group at cleanup time.
	ErrAttachedToLoadBalancer = errors.New("auto scaling group attached to load balancer")
	// ErrNoFunctionARN is returned when the invoked function ARN is unknown.
	ErrNoFunctionARN = errors.New("function ARN required")
)

// AutoScalingAPI is the subset of the Auto Scaling client used by Cleaner.
type AutoScalingAPI interface {
	DescribeAutoScalingGroups(ctx context.Context, params *autoscaling.DescribeAutoScalingGroupsInput, optFns ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error)
	DeleteAutoScalingGroup(ctx context.Context, params *autoscaling.DeleteAutoScalingGroupInput, optFns ...func(*autoscaling.Options)) (*autoscaling.DeleteAutoScalingGroupOutput, error)
}

// EventsAPI is the subset of the EventBridge (CloudWatch Events) client used by Cleaner.
type EventsAPI interface {
	PutRule(ctx context.Context, params *eventbridge.PutRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargets(ctx context.Context, params *eventbridge.PutTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
	RemoveTargets(ctx context.Context, params *eventbridge.RemoveTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, params *eventbridge.DeleteRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error)
}

// LambdaAPI is the subset of the Lambda client used by Cleaner.
type LambdaAPI interface {
	AddPermission(ctx context.Context, params *lambdasvc.AddPermissionInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.AddPermissionOutput, error)
	RemovePermission(ctx context.Context, params *lambdasvc.RemovePermissionInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.RemovePermissionOutput, error)
}

// Cleaner runs the notify and cleanup phases against AWS.
type Cleaner struct {
	asg    AutoScalingAPI
	events EventsAPI
	perms  LambdaAPI

	keepAlive int
	now       func() time.Time
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithClock sets the time source used to compute the cleanup schedule.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// WithTelemetry sets the tracer source.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(c *Cleaner) { c.tracer = p.Tracer() }
}

// New creates a Cleaner. keepAlive is the grace period in minutes between
// a failure notification and the cleanup.
func New(asg AutoScalingAPI, events EventsAPI, perms LambdaAPI, keepAlive int, opts ...Option) *Cleaner {
	c := &Cleaner{
		asg:       asg,
		events:    events,
		perms:     perms,
		keepAlive: keepAlive,
		now:       time.Now,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer(telemetry.InstrumentationName),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// KeepAlive returns the configured grace period in minutes.
func (c *Cleaner) KeepAlive() int { return c.keepAlive }

// call wraps a single AWS request in a span and counts failures.
func (c *Cleaner) call(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	err := fn(ctx)
	if err != nil {
		metrics.ExternalCallFailures.Add(1)
	}
	telemetry.End(span, err)
	return err
}
