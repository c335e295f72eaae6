package schedule

import "github.com/dwsmith1983/codedeploy-cleanup/pkg/types"

// Name prefixes shared by the notify and cleanup paths. CodeDeploy itself
// names the replacement Auto Scaling Group with ASGPrefix.
const (
	ASGPrefix       = "CodeDeploy"
	CleanupPrefix   = "CodeDeployCleanup"
	TargetID        = "CodeDeployCleanupLambda"
	EventsPrincipal = "events.amazonaws.com"
	InvokeAction    = "lambda:InvokeFunction"
)

// ASGName returns the Auto Scaling Group CodeDeploy created for the deployment.
func ASGName(group, id string) string {
	return ASGPrefix + "_" + group + "_" + id
}

// RuleName returns the scheduled rule name for the deployment.
func RuleName(group, id string) string {
	return CleanupPrefix + "_" + group + "_" + id
}

// StatementID returns the Lambda permission statement id for the deployment.
func StatementID(group, id string) string {
	return CleanupPrefix + "-" + group + "-" + id
}

// ArtifactsFor derives every artifact name from the deployment identifiers.
func ArtifactsFor(d types.Deployment) types.Artifacts {
	return types.Artifacts{
		AutoScalingGroup: ASGName(d.Group, d.ID),
		RuleName:         RuleName(d.Group, d.ID),
		TargetID:         TargetID,
		StatementID:      StatementID(d.Group, d.ID),
	}
}

// RuleDescription is the human readable description attached to the rule.
func RuleDescription(d types.Deployment) string {
	return "CodeDeployCleanup of failed deployment: " + d.ID + " in " + d.Group
}
