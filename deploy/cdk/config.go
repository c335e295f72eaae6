package main

// StackConfig holds configuration for the CodeDeploy cleanup CDK stack.
type StackConfig struct {
	Name             string
	MemorySize       float64
	Timeout          float64
	LambdaDistDir    string
	KeepAlive        int
	LogLevel         string
	LogRetentionDays float64
	OTLPEndpoint     string

	// Opt-in SNS topic receiving alerts for failed invocations.
	EnableAlertTopic bool
}

// DefaultConfig returns a StackConfig with sensible defaults.
func DefaultConfig() StackConfig {
	return StackConfig{
		Name:             "codedeploy-cleanup",
		MemorySize:       128,
		Timeout:          30,
		LambdaDistDir:    "../dist/lambda",
		KeepAlive:        60,
		LogLevel:         "info",
		LogRetentionDays: 14,
	}
}
