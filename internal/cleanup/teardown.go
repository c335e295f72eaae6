package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/metrics"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/schedule"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/telemetry"
	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// Cleanup runs the second phase for a deployment: it removes the rule target
// and the rule, revokes the rule's invoke permission, and then force-deletes
// the Auto Scaling Group. The schedule is torn down first so that a failed
// group deletion cannot cause repeated re-invocations.
//
// A group still attached to a load balancer or target group is never
// deleted; ErrAttachedToLoadBalancer is returned instead.
func (c *Cleaner) Cleanup(ctx context.Context, d types.Deployment, functionARN string) (outcome types.Outcome, err error) {
	ctx, span := c.tracer.Start(ctx, "cleanup.Cleanup", trace.WithAttributes(
		attribute.String("deployment.id", d.ID),
		attribute.String("deployment.group", d.Group),
	))
	defer func() {
		span.SetAttributes(attribute.String("cleanup.outcome", string(outcome)))
		telemetry.End(span, err)
	}()

	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("cleanup payload: %w", err)
	}
	if functionARN == "" {
		return "", ErrNoFunctionARN
	}

	names := schedule.ArtifactsFor(d)
	logger := c.logger.With("deploymentId", d.ID, "deploymentGroup", d.Group)

	if err := c.RemoveSchedule(ctx, names, functionARN); err != nil {
		return "", err
	}

	return c.removeGroup(ctx, names.AutoScalingGroup, logger)
}

// DeleteGroup deletes the deployment's Auto Scaling Group without touching
// the schedule. It applies the same load balancer check as Cleanup and is
// meant for groups whose schedule is already gone.
func (c *Cleaner) DeleteGroup(ctx context.Context, d types.Deployment) (outcome types.Outcome, err error) {
	ctx, span := c.tracer.Start(ctx, "cleanup.DeleteGroup", trace.WithAttributes(
		attribute.String("deployment.id", d.ID),
		attribute.String("deployment.group", d.Group),
	))
	defer func() {
		span.SetAttributes(attribute.String("cleanup.outcome", string(outcome)))
		telemetry.End(span, err)
	}()

	if err := d.Validate(); err != nil {
		return "", err
	}
	logger := c.logger.With("deploymentId", d.ID, "deploymentGroup", d.Group)
	return c.removeGroup(ctx, schedule.ASGName(d.Group, d.ID), logger)
}

func (c *Cleaner) removeGroup(ctx context.Context, name string, logger *slog.Logger) (types.Outcome, error) {
	logger.Info("checking whether auto scaling group is attached to a load balancer", "asg", name)
	group, err := c.describeGroup(ctx, name)
	if err != nil {
		return "", err
	}
	if group == nil {
		logger.Warn("auto scaling group already gone", "asg", name)
		metrics.GroupsAbsent.Add(1)
		return types.OutcomeAbsent, nil
	}
	if attached(group) {
		metrics.CleanupsAborted.Add(1)
		logger.Error("refusing to delete auto scaling group attached to load balancer",
			"asg", name,
			"targetGroups", group.TargetGroupARNs,
			"loadBalancers", group.LoadBalancerNames)
		return "", fmt.Errorf("%w: %s", ErrAttachedToLoadBalancer, name)
	}

	logger.Info("deleting auto scaling group", "asg", name)
	if err := c.deleteGroup(ctx, name); err != nil {
		return "", err
	}

	metrics.CleanupsCompleted.Add(1)
	logger.Info("auto scaling group deleted", "asg", name)
	return types.OutcomeCleaned, nil
}

// RemoveSchedule deletes the rule target, the rule and the invoke permission
// created by Notify. Targets must be removed before the rule can be deleted.
func (c *Cleaner) RemoveSchedule(ctx context.Context, names types.Artifacts, functionARN string) error {
	logger := c.logger.With("rule", names.RuleName)

	logger.Info("removing targets from rule", "target", names.TargetID)
	err := c.call(ctx, "events.RemoveTargets", func(ctx context.Context) error {
		out, err := c.events.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
			Rule: aws.String(names.RuleName),
			Ids:  []string{names.TargetID},
		})
		if err != nil {
			return fmt.Errorf("removing targets from rule %s: %w", names.RuleName, err)
		}
		if err := checkStatus("RemoveTargets", httpStatus(out.ResultMetadata), http.StatusOK); err != nil {
			return err
		}
		return removeTargetsFailure(names.RuleName, out.FailedEntryCount, out.FailedEntries)
	})
	if err != nil {
		return err
	}

	logger.Info("deleting rule")
	err = c.call(ctx, "events.DeleteRule", func(ctx context.Context) error {
		out, err := c.events.DeleteRule(ctx, &eventbridge.DeleteRuleInput{Name: aws.String(names.RuleName)})
		if err != nil {
			return fmt.Errorf("deleting rule %s: %w", names.RuleName, err)
		}
		return checkStatus("DeleteRule", httpStatus(out.ResultMetadata), http.StatusOK)
	})
	if err != nil {
		return err
	}

	logger.Info("removing invoke permission", "statementId", names.StatementID)
	return c.call(ctx, "lambda.RemovePermission", func(ctx context.Context) error {
		out, err := c.perms.RemovePermission(ctx, &lambdasvc.RemovePermissionInput{
			FunctionName: aws.String(functionARN),
			StatementId:  aws.String(names.StatementID),
		})
		if err != nil {
			return fmt.Errorf("removing permission %s: %w", names.StatementID, err)
		}
		if id := requestID(out.ResultMetadata); id != "" {
			logger.Debug("permission removed", "requestId", id)
		}
		return checkStatus("RemovePermission", httpStatus(out.ResultMetadata), statusRemovePermission)
	})
}
