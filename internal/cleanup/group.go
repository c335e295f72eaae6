package cleanup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	asgtypes "github.com/aws/aws-sdk-go-v2/service/autoscaling/types"
)

// describeGroup returns the named Auto Scaling Group, or nil when it does not exist.
func (c *Cleaner) describeGroup(ctx context.Context, name string) (*asgtypes.AutoScalingGroup, error) {
	var group *asgtypes.AutoScalingGroup
	err := c.call(ctx, "autoscaling.DescribeAutoScalingGroups", func(ctx context.Context) error {
		out, err := c.asg.DescribeAutoScalingGroups(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
			AutoScalingGroupNames: []string{name},
		})
		if err != nil {
			return fmt.Errorf("describing auto scaling group %s: %w", name, err)
		}
		if err := checkStatus("DescribeAutoScalingGroups", httpStatus(out.ResultMetadata), http.StatusOK); err != nil {
			return err
		}
		if len(out.AutoScalingGroups) > 0 {
			group = &out.AutoScalingGroups[0]
		}
		return nil
	})
	return group, err
}

// attached reports whether the group is routing traffic through a target
// group or classic load balancer.
func attached(g *asgtypes.AutoScalingGroup) bool {
	return len(g.TargetGroupARNs) > 0 || len(g.LoadBalancerNames) > 0
}

func (c *Cleaner) deleteGroup(ctx context.Context, name string) error {
	return c.call(ctx, "autoscaling.DeleteAutoScalingGroup", func(ctx context.Context) error {
		// ForceDelete terminates member instances with the group.
		out, err := c.asg.DeleteAutoScalingGroup(ctx, &autoscaling.DeleteAutoScalingGroupInput{
			AutoScalingGroupName: aws.String(name),
			ForceDelete:          aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("deleting auto scaling group %s: %w", name, err)
		}
		return checkStatus("DeleteAutoScalingGroup", httpStatus(out.ResultMetadata), http.StatusOK)
	})
}
