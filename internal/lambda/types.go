// Package lambda provides shared types and initialization for the cleanup Lambda handler.
package lambda

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

// Invocation is the input to the cleanup Lambda. It accepts both payload
// shapes the function is invoked with: an SNS delivery carrying a CodeDeploy
// notification (Action empty or "sns"), and the scheduled re-invocation
// {"action":"cleanup","deploymentId":...,"deploymentGroup":...}.
type Invocation struct {
	Action          types.Action            `json:"action,omitempty"`
	DeploymentID    string                  `json:"deploymentId,omitempty"`
	DeploymentGroup string                  `json:"deploymentGroup,omitempty"`
	Records         []events.SNSEventRecord `json:"Records,omitempty"`
}

// ResolvedAction returns the action, defaulting to notify.
func (i Invocation) ResolvedAction() types.Action {
	if i.Action == "" {
		return types.ActionNotify
	}
	return i.Action
}

// Deployment returns the deployment named by a cleanup re-invocation.
func (i Invocation) Deployment() types.Deployment {
	return types.Deployment{ID: i.DeploymentID, Group: i.DeploymentGroup}
}

// Notifications decodes the CodeDeploy message carried by each SNS record.
func (i Invocation) Notifications() ([]types.DeploymentNotification, error) {
	if len(i.Records) == 0 {
		return nil, fmt.Errorf("SNS delivery contains no records")
	}
	out := make([]types.DeploymentNotification, 0, len(i.Records))
	for idx, rec := range i.Records {
		var n types.DeploymentNotification
		if err := json.Unmarshal([]byte(rec.SNS.Message), &n); err != nil {
			return nil, fmt.Errorf("decoding SNS record %d (%s): %w", idx, rec.SNS.MessageID, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Result is the outcome for one deployment handled by an invocation.
type Result struct {
	DeploymentID    string        `json:"deploymentId"`
	DeploymentGroup string        `json:"deploymentGroup"`
	Outcome         types.Outcome `json:"outcome"`
}

// Response is the output of the cleanup Lambda.
type Response struct {
	Action       types.Action `json:"action"`
	InvocationID string       `json:"invocationId"`
	Results      []Result     `json:"results,omitempty"`
}
