package types

import (
	"strings"
	"time"
)

// Deployment identifies one deployment attempt within a deployment group.
type Deployment struct {
	ID    string `json:"deploymentId" yaml:"deploymentId"`
	Group string `json:"deploymentGroup" yaml:"deploymentGroup"`
}

// Validate reports whether both identifiers are present.
func (d Deployment) Validate() error {
	var missing []string
	if d.ID == "" {
		missing = append(missing, "deploymentId")
	}
	if d.Group == "" {
		missing = append(missing, "deploymentGroup")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// MissingFieldsError is returned when a payload lacks identifying fields.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// DeploymentNotification is the JSON message CodeDeploy publishes to SNS
// for a deployment trigger. Only deploymentId, deploymentGroupName and
// status drive behaviour; the rest is carried for logging.
type DeploymentNotification struct {
	Region              string           `json:"region,omitempty"`
	AccountID           string           `json:"accountId,omitempty"`
	EventTriggerName    string           `json:"eventTriggerName,omitempty"`
	ApplicationName     string           `json:"applicationName,omitempty"`
	DeploymentID        string           `json:"deploymentId"`
	DeploymentGroupName string           `json:"deploymentGroupName"`
	Status              DeploymentStatus `json:"status"`
	CreateTime          string           `json:"createTime,omitempty"`
	CompleteTime        string           `json:"completeTime,omitempty"`
}

// Deployment returns the identifying pair carried by the notification.
func (n DeploymentNotification) Deployment() Deployment {
	return Deployment{ID: n.DeploymentID, Group: n.DeploymentGroupName}
}

// CleanupPayload is the rule target input that re-invokes the function.
// Field names are part of the contract between the two phases.
type CleanupPayload struct {
	Action          Action `json:"action"`
	DeploymentID    string `json:"deploymentId"`
	DeploymentGroup string `json:"deploymentGroup"`
}

// Artifacts holds every name derived from a deployment.
type Artifacts struct {
	AutoScalingGroup string `json:"autoScalingGroup" yaml:"autoScalingGroup"`
	RuleName         string `json:"ruleName" yaml:"ruleName"`
	TargetID         string `json:"targetId" yaml:"targetId"`
	StatementID      string `json:"statementId" yaml:"statementId"`
}

// Alert represents an alert event to be dispatched.
type Alert struct {
	Level           AlertLevel             `json:"level"`
	DeploymentID    string                 `json:"deploymentId,omitempty"`
	DeploymentGroup string                 `json:"deploymentGroup,omitempty"`
	Action          Action                 `json:"action,omitempty"`
	Message         string                 `json:"message"`
	Details         map[string]interface{} `json:"details,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}
