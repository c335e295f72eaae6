package cleanup

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	asgtypes "github.com/aws/aws-sdk-go-v2/service/autoscaling/types"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
)

const (
	testFunctionARN = "arn:aws:lambda:us-east-1:123456789012:function:codedeploy-cleanup"
	testRuleARN     = "arn:aws:events:us-east-1:123456789012:rule/CodeDeployCleanup_g1_d1"
)

// fakeAWS implements AutoScalingAPI, EventsAPI and LambdaAPI, recording
// every call in order.
type fakeAWS struct {
	calls []string

	groups      []asgtypes.AutoScalingGroup
	describeErr error
	deleteErr   error

	putRuleErr       error
	putTargetsErr    error
	putTargetsFailed int32
	removeTargetsErr error
	removeFailed     int32
	deleteRuleErr    error

	addPermErr    error
	removePermErr error

	describeIn   []*autoscaling.DescribeAutoScalingGroupsInput
	deleteIn     *autoscaling.DeleteAutoScalingGroupInput
	putRuleIn    *eventbridge.PutRuleInput
	putTargetsIn *eventbridge.PutTargetsInput
	removeIn     *eventbridge.RemoveTargetsInput
	deleteRuleIn *eventbridge.DeleteRuleInput
	addPermIn    *lambdasvc.AddPermissionInput
	removePermIn *lambdasvc.RemovePermissionInput
}

func (f *fakeAWS) DescribeAutoScalingGroups(_ context.Context, in *autoscaling.DescribeAutoScalingGroupsInput, _ ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
	f.calls = append(f.calls, "DescribeAutoScalingGroups")
	f.describeIn = append(f.describeIn, in)
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &autoscaling.DescribeAutoScalingGroupsOutput{AutoScalingGroups: f.groups}, nil
}

func (f *fakeAWS) DeleteAutoScalingGroup(_ context.Context, in *autoscaling.DeleteAutoScalingGroupInput, _ ...func(*autoscaling.Options)) (*autoscaling.DeleteAutoScalingGroupOutput, error) {
	f.calls = append(f.calls, "DeleteAutoScalingGroup")
	f.deleteIn = in
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &autoscaling.DeleteAutoScalingGroupOutput{}, nil
}

func (f *fakeAWS) PutRule(_ context.Context, in *eventbridge.PutRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error) {
	f.calls = append(f.calls, "PutRule")
	f.putRuleIn = in
	if f.putRuleErr != nil {
		return nil, f.putRuleErr
	}
	return &eventbridge.PutRuleOutput{RuleArn: aws.String(testRuleARN)}, nil
}

func (f *fakeAWS) PutTargets(_ context.Context, in *eventbridge.PutTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error) {
	f.calls = append(f.calls, "PutTargets")
	f.putTargetsIn = in
	if f.putTargetsErr != nil {
		return nil, f.putTargetsErr
	}
	return &eventbridge.PutTargetsOutput{FailedEntryCount: f.putTargetsFailed}, nil
}

func (f *fakeAWS) RemoveTargets(_ context.Context, in *eventbridge.RemoveTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error) {
	f.calls = append(f.calls, "RemoveTargets")
	f.removeIn = in
	if f.removeTargetsErr != nil {
		return nil, f.removeTargetsErr
	}
	return &eventbridge.RemoveTargetsOutput{FailedEntryCount: f.removeFailed}, nil
}

func (f *fakeAWS) DeleteRule(_ context.Context, in *eventbridge.DeleteRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error) {
	f.calls = append(f.calls, "DeleteRule")
	f.deleteRuleIn = in
	if f.deleteRuleErr != nil {
		return nil, f.deleteRuleErr
	}
	return &eventbridge.DeleteRuleOutput{}, nil
}

func (f *fakeAWS) AddPermission(_ context.Context, in *lambdasvc.AddPermissionInput, _ ...func(*lambdasvc.Options)) (*lambdasvc.AddPermissionOutput, error) {
	f.calls = append(f.calls, "AddPermission")
	f.addPermIn = in
	if f.addPermErr != nil {
		return nil, f.addPermErr
	}
	return &lambdasvc.AddPermissionOutput{}, nil
}

func (f *fakeAWS) RemovePermission(_ context.Context, in *lambdasvc.RemovePermissionInput, _ ...func(*lambdasvc.Options)) (*lambdasvc.RemovePermissionOutput, error) {
	f.calls = append(f.calls, "RemovePermission")
	f.removePermIn = in
	if f.removePermErr != nil {
		return nil, f.removePermErr
	}
	return &lambdasvc.RemovePermissionOutput{}, nil
}

// mutating returns the recorded calls that change AWS state.
func (f *fakeAWS) mutating() []string {
	var out []string
	for _, c := range f.calls {
		if c != "DescribeAutoScalingGroups" {
			out = append(out, c)
		}
	}
	return out
}

func unattachedGroup(name string) asgtypes.AutoScalingGroup {
	return asgtypes.AutoScalingGroup{AutoScalingGroupName: aws.String(name)}
}

var fixedNow = time.Date(2026, 3, 5, 10, 15, 42, 0, time.UTC)

func newTestCleaner(t *testing.T, f *fakeAWS, keepAlive int) (*Cleaner, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(f, f, f, keepAlive,
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(logger),
	)
	return c, &logs
}
