// cleanup Lambda reacts to failed CodeDeploy deployments. An SNS delivery
// schedules a one-shot CloudWatch Events rule; when that rule fires the same
// function is invoked with action "cleanup" and tears down the schedule and
// the deployment's Auto Scaling group.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/cleanup"
	intlambda "github.com/dwsmith1983/codedeploy-cleanup/internal/lambda"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/metrics"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/schedule"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/telemetry"
	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

// handleInvocation dispatches on the invocation's action.
func handleInvocation(ctx context.Context, d *intlambda.Deps, functionARN string, inv intlambda.Invocation) (resp intlambda.Response, err error) {
	action := inv.ResolvedAction()
	resp = intlambda.Response{
		Action:       action,
		InvocationID: ulid.Make().String(),
	}
	logger := d.Logger.With("invocationId", resp.InvocationID, "action", string(action))

	ctx, span := d.Telemetry.Tracer().Start(ctx, "invocation")
	span.SetAttributes(
		attribute.String("invocation.id", resp.InvocationID),
		attribute.String("invocation.action", string(action)),
	)
	defer func() {
		logger.Info("invocation metrics", "metrics", metrics.Snapshot())
		telemetry.End(span, err)
		if ferr := d.Telemetry.Flush(ctx); ferr != nil {
			logger.Warn("flushing spans failed", "error", ferr)
		}
	}()

	switch action {
	case types.ActionNotify:
		return handleNotify(ctx, d, logger, functionARN, inv, resp)
	case types.ActionCleanup:
		return handleCleanup(ctx, d, logger, functionARN, inv, resp)
	default:
		return resp, fmt.Errorf("unknown action: %s", inv.Action)
	}
}

// handleNotify schedules cleanup for every FAILED notification in the
// delivery, in record order. The first error stops processing.
func handleNotify(ctx context.Context, d *intlambda.Deps, logger *slog.Logger, functionARN string, inv intlambda.Invocation, resp intlambda.Response) (intlambda.Response, error) {
	notifications, err := inv.Notifications()
	if err != nil {
		return resp, err
	}
	for _, n := range notifications {
		outcome, err := d.Cleaner.Notify(ctx, n, functionARN)
		if err != nil {
			fail(ctx, d, logger, types.ActionNotify, n.Deployment(), err)
			return resp, err
		}
		resp.Results = append(resp.Results, intlambda.Result{
			DeploymentID:    n.DeploymentID,
			DeploymentGroup: n.DeploymentGroupName,
			Outcome:         outcome,
		})
	}
	logger.Info("notification handled", "records", len(notifications))
	return resp, nil
}

// handleCleanup tears down the schedule and Auto Scaling group named by the
// scheduled payload.
func handleCleanup(ctx context.Context, d *intlambda.Deps, logger *slog.Logger, functionARN string, inv intlambda.Invocation, resp intlambda.Response) (intlambda.Response, error) {
	dep := inv.Deployment()
	outcome, err := d.Cleaner.Cleanup(ctx, dep, functionARN)
	if err != nil {
		fail(ctx, d, logger, types.ActionCleanup, dep, err)
		return resp, err
	}
	resp.Results = append(resp.Results, intlambda.Result{
		DeploymentID:    dep.ID,
		DeploymentGroup: dep.Group,
		Outcome:         outcome,
	})
	logger.Info("cleanup handled", "outcome", string(outcome))
	return resp, nil
}

// fail logs a fatal error and sends a best-effort alert. Partial AWS state
// is not rolled back, so the alert names every artifact the deployment owns.
func fail(ctx context.Context, d *intlambda.Deps, logger *slog.Logger, action types.Action, dep types.Deployment, err error) {
	names := schedule.ArtifactsFor(dep)
	level := types.AlertLevelError
	if errors.Is(err, cleanup.ErrAttachedToLoadBalancer) {
		level = types.AlertLevelWarning
	}
	logger.Error("invocation failed",
		"deploymentId", dep.ID,
		"deploymentGroup", dep.Group,
		"error", err,
	)
	d.AlertFn(ctx, types.Alert{
		Level:           level,
		DeploymentID:    dep.ID,
		DeploymentGroup: dep.Group,
		Action:          action,
		Message:         fmt.Sprintf("%s failed: %v", action, err),
		Details: map[string]interface{}{
			"autoScalingGroup": names.AutoScalingGroup,
			"rule":             names.RuleName,
			"statementId":      names.StatementID,
		},
		Timestamp: time.Now(),
	})
}

func handler(ctx context.Context, inv intlambda.Invocation) (intlambda.Response, error) {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok || lc.InvokedFunctionArn == "" {
		return intlambda.Response{}, fmt.Errorf("invoked function ARN unavailable: %w", cleanup.ErrNoFunctionARN)
	}
	d, err := getDeps()
	if err != nil {
		return intlambda.Response{}, err
	}
	return handleInvocation(ctx, d, lc.InvokedFunctionArn, inv)
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.StartWithOptions(handler, awslambda.WithEnableSIGTERM(shutdown))
}

// shutdown flushes spans when the runtime stops the container.
func shutdown() {
	if deps == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := deps.Telemetry.Shutdown(ctx); err != nil {
		deps.Logger.Warn("telemetry shutdown failed", "error", err)
	}
}
