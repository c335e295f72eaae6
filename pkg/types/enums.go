// Package types defines the public domain types for CodeDeploy failed-deployment cleanup.
package types

// DeploymentStatus is the status CodeDeploy reports in a trigger notification.
type DeploymentStatus string

// DeploymentStatus values as published by CodeDeploy triggers.
const (
	DeploymentCreated   DeploymentStatus = "CREATED"
	DeploymentQueued    DeploymentStatus = "QUEUED"
	DeploymentReady     DeploymentStatus = "READY"
	DeploymentSucceeded DeploymentStatus = "SUCCEEDED"
	DeploymentFailed    DeploymentStatus = "FAILED"
	DeploymentStopped   DeploymentStatus = "STOPPED"
)

// Action selects the code path of an invocation.
type Action string

// Action values carried in the invocation payload. An empty action means notify.
const (
	ActionNotify  Action = "sns"
	ActionCleanup Action = "cleanup"
)

// Outcome summarises what an invocation did.
type Outcome string

// Outcome values returned by the notify and cleanup paths.
const (
	OutcomeScheduled Outcome = "scheduled"
	OutcomeCleaned   Outcome = "cleaned"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeAbsent    Outcome = "absent"
)

// AlertLevel classifies an alert.
type AlertLevel string

const (
	AlertLevelError   AlertLevel = "error"
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelInfo    AlertLevel = "info"
)

// AlertType defines the alert sink type.
type AlertType string

// AlertType values enumerate the supported alert sink backends.
const (
	AlertConsole AlertType = "console"
	AlertSNS     AlertType = "sns"
)
