package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/metrics"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/schedule"
	"github.com/dwsmith1983/codedeploy-cleanup/internal/telemetry"
	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// Notify handles a CodeDeploy trigger notification. For a FAILED deployment
// whose Auto Scaling Group still exists it creates a rule firing after the
// keep-alive period, targets this function with a cleanup payload, and
// allows the rule to invoke the function.
//
// Any failure is returned as is. Artifacts created earlier in the same call
// are not rolled back.
func (c *Cleaner) Notify(ctx context.Context, n types.DeploymentNotification, functionARN string) (outcome types.Outcome, err error) {
	ctx, span := c.tracer.Start(ctx, "cleanup.Notify", trace.WithAttributes(
		attribute.String("deployment.id", n.DeploymentID),
		attribute.String("deployment.group", n.DeploymentGroupName),
		attribute.String("deployment.status", string(n.Status)),
	))
	defer func() {
		span.SetAttributes(attribute.String("cleanup.outcome", string(outcome)))
		telemetry.End(span, err)
	}()

	metrics.NotificationsReceived.Add(1)
	d := n.Deployment()
	logger := c.logger.With("deploymentId", d.ID, "deploymentGroup", d.Group)

	// A trigger configured to forward every status must never remove a healthy group.
	if n.Status != types.DeploymentFailed {
		logger.Warn("deployment status is not FAILED, nothing to do", "status", n.Status)
		metrics.NotificationsSkipped.Add(1)
		return types.OutcomeSkipped, nil
	}
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("notification: %w", err)
	}
	if functionARN == "" {
		return "", ErrNoFunctionARN
	}

	names := schedule.ArtifactsFor(d)
	logger.Info("checking for auto scaling group", "asg", names.AutoScalingGroup)
	group, err := c.describeGroup(ctx, names.AutoScalingGroup)
	if err != nil {
		return "", err
	}
	if group == nil {
		logger.Info("auto scaling group does not exist, nothing to clean up", "asg", names.AutoScalingGroup)
		metrics.GroupsAbsent.Add(1)
		return types.OutcomeAbsent, nil
	}

	now := c.now()
	expr := schedule.CronAt(now, c.keepAlive)
	fireAt, err := schedule.NextFire(expr, now)
	if err != nil {
		return "", fmt.Errorf("building cleanup schedule: %w", err)
	}

	ruleARN, err := c.putRule(ctx, names.RuleName, expr, schedule.RuleDescription(d))
	if err != nil {
		return "", err
	}
	logger.Info("created cleanup rule", "rule", names.RuleName, "schedule", expr, "fireAt", fireAt)

	if err := c.putTarget(ctx, names, functionARN, d); err != nil {
		return "", err
	}
	logger.Info("attached function target", "rule", names.RuleName, "target", names.TargetID)

	if err := c.addPermission(ctx, names.StatementID, functionARN, ruleARN); err != nil {
		return "", err
	}
	logger.Info("granted rule permission to invoke function", "statementId", names.StatementID)

	metrics.CleanupsScheduled.Add(1)
	logger.Info("cleanup scheduled", "asg", names.AutoScalingGroup, "fireAt", fireAt)
	return types.OutcomeScheduled, nil
}

func (c *Cleaner) putRule(ctx context.Context, name, expr, description string) (string, error) {
	var ruleARN string
	err := c.call(ctx, "events.PutRule", func(ctx context.Context) error {
		out, err := c.events.PutRule(ctx, &eventbridge.PutRuleInput{
			Name:               aws.String(name),
			ScheduleExpression: aws.String(expr),
			State:              eventtypes.RuleStateEnabled,
			Description:        aws.String(description),
		})
		if err != nil {
			return fmt.Errorf("creating rule %s: %w", name, err)
		}
		if err := checkStatus("PutRule", httpStatus(out.ResultMetadata), http.StatusOK); err != nil {
			return err
		}
		ruleARN = aws.ToString(out.RuleArn)
		if ruleARN == "" {
			return fmt.Errorf("creating rule %s: no rule ARN returned", name)
		}
		return nil
	})
	return ruleARN, err
}

func (c *Cleaner) putTarget(ctx context.Context, names types.Artifacts, functionARN string, d types.Deployment) error {
	input, err := json.Marshal(types.CleanupPayload{
		Action:          types.ActionCleanup,
		DeploymentID:    d.ID,
		DeploymentGroup: d.Group,
	})
	if err != nil {
		return fmt.Errorf("encoding cleanup payload: %w", err)
	}

	return c.call(ctx, "events.PutTargets", func(ctx context.Context) error {
		out, err := c.events.PutTargets(ctx, &eventbridge.PutTargetsInput{
			Rule: aws.String(names.RuleName),
			Targets: []eventtypes.Target{{
				Id:    aws.String(names.TargetID),
				Arn:   aws.String(functionARN),
				Input: aws.String(string(input)),
			}},
		})
		if err != nil {
			return fmt.Errorf("putting target on rule %s: %w", names.RuleName, err)
		}
		if err := checkStatus("PutTargets", httpStatus(out.ResultMetadata), http.StatusOK); err != nil {
			return err
		}
		return putTargetsFailure(names.RuleName, out.FailedEntryCount, out.FailedEntries)
	})
}

func (c *Cleaner) addPermission(ctx context.Context, statementID, functionARN, ruleARN string) error {
	return c.call(ctx, "lambda.AddPermission", func(ctx context.Context) error {
		out, err := c.perms.AddPermission(ctx, &lambdasvc.AddPermissionInput{
			FunctionName: aws.String(functionARN),
			StatementId:  aws.String(statementID),
			Action:       aws.String(schedule.InvokeAction),
			Principal:    aws.String(schedule.EventsPrincipal),
			SourceArn:    aws.String(ruleARN),
		})
		if err != nil {
			return fmt.Errorf("adding permission %s: %w", statementID, err)
		}
		return checkStatus("AddPermission", httpStatus(out.ResultMetadata), statusAddPermission)
	})
}
