package main

import (
	"path/filepath"
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambdaeventsources"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/dwsmith1983/codedeploy-cleanup/internal/schedule"
)

// NewCleanupStack defines the trigger topic CodeDeploy publishes to, the
// cleanup function subscribed to it, and the permissions the function needs
// to schedule and run cleanups.
func NewCleanupStack(scope constructs.Construct, id string, cfg StackConfig) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, nil)

	// Trigger topic: attach it to the deployment group's FAILED trigger.
	triggerTopic := awssns.NewTopic(stack, jsii.String("TriggerTopic"), &awssns.TopicProps{
		TopicName: jsii.String(cfg.Name + "-failures"),
	})

	var alertTopic awssns.Topic
	if cfg.EnableAlertTopic {
		alertTopic = awssns.NewTopic(stack, jsii.String("AlertTopic"), &awssns.TopicProps{
			TopicName: jsii.String(cfg.Name + "-alerts"),
		})
	}

	env := &map[string]*string{
		"KEEP_ALIVE":   jsii.String(strconv.Itoa(cfg.KeepAlive)),
		"LOG_LEVEL":    jsii.String(cfg.LogLevel),
		"SERVICE_NAME": jsii.String(cfg.Name),
	}
	if alertTopic != nil {
		(*env)["ALERT_TOPIC_ARN"] = alertTopic.TopicArn()
	}
	if cfg.OTLPEndpoint != "" {
		(*env)["OTEL_EXPORTER_OTLP_ENDPOINT"] = jsii.String(cfg.OTLPEndpoint)
	}

	functionName := cfg.Name
	fn := awslambda.NewFunction(stack, jsii.String("cleanup"), &awslambda.FunctionProps{
		FunctionName: jsii.String(functionName),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Handler:      jsii.String("bootstrap"),
		Code:         awslambda.Code_FromAsset(jsii.String(filepath.Join(cfg.LambdaDistDir, "cleanup")), nil),
		Architecture: awslambda.Architecture_ARM_64(),
		MemorySize:   jsii.Number(cfg.MemorySize),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(cfg.Timeout)),
		Environment:  env,
		LogRetention: logRetentionDays(cfg.LogRetentionDays),
	})

	fn.AddEventSource(awslambdaeventsources.NewSnsEventSource(triggerTopic, nil))

	// Auto Scaling: the group name is only known per deployment.
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: &[]*string{
			jsii.String("autoscaling:DescribeAutoScalingGroups"),
			jsii.String("autoscaling:DeleteAutoScalingGroup"),
		},
		Resources: &[]*string{jsii.String("*")},
	}))

	// CloudWatch Events: only the per-deployment cleanup rules.
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: &[]*string{
			jsii.String("events:PutRule"),
			jsii.String("events:PutTargets"),
			jsii.String("events:RemoveTargets"),
			jsii.String("events:DeleteRule"),
		},
		Resources: &[]*string{stack.FormatArn(&awscdk.ArnComponents{
			Service:      jsii.String("events"),
			Resource:     jsii.String("rule"),
			ResourceName: jsii.String(schedule.CleanupPrefix + "_*"),
		})},
	}))

	// Lambda: edit the function's own resource policy. The ARN is built from
	// the name; referencing fn.FunctionArn() here would be circular.
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: &[]*string{
			jsii.String("lambda:AddPermission"),
			jsii.String("lambda:RemovePermission"),
		},
		Resources: &[]*string{stack.FormatArn(&awscdk.ArnComponents{
			Service:      jsii.String("lambda"),
			Resource:     jsii.String("function"),
			ResourceName: jsii.String(functionName),
			ArnFormat:    awscdk.ArnFormat_COLON_RESOURCE_NAME,
		})},
	}))

	if alertTopic != nil {
		alertTopic.GrantPublish(fn)
	}

	awscdk.NewCfnOutput(stack, jsii.String("TriggerTopicArn"), &awscdk.CfnOutputProps{
		Value: triggerTopic.TopicArn(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("FunctionArn"), &awscdk.CfnOutputProps{
		Value: fn.FunctionArn(),
	})
	if alertTopic != nil {
		awscdk.NewCfnOutput(stack, jsii.String("AlertTopicArn"), &awscdk.CfnOutputProps{
			Value: alertTopic.TopicArn(),
		})
	}

	return stack
}

func logRetentionDays(days float64) awslogs.RetentionDays {
	switch days {
	case 1:
		return awslogs.RetentionDays_ONE_DAY
	case 3:
		return awslogs.RetentionDays_THREE_DAYS
	case 5:
		return awslogs.RetentionDays_FIVE_DAYS
	case 7:
		return awslogs.RetentionDays_ONE_WEEK
	case 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case 30:
		return awslogs.RetentionDays_ONE_MONTH
	case 60:
		return awslogs.RetentionDays_TWO_MONTHS
	case 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_TWO_WEEKS
	}
}
