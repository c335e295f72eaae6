package main

import (
	"os"
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	cfg := DefaultConfig()

	if name := os.Getenv("CLEANUP_NAME"); name != "" {
		cfg.Name = name
	}
	if v := os.Getenv("CLEANUP_KEEP_ALIVE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			panic("CLEANUP_KEEP_ALIVE must be a positive integer")
		}
		cfg.KeepAlive = n
	}
	if lvl := os.Getenv("CLEANUP_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	cfg.OTLPEndpoint = os.Getenv("CLEANUP_OTLP_ENDPOINT")
	cfg.EnableAlertTopic = os.Getenv("CLEANUP_ALERT_TOPIC") == "true"

	stackName := "CodeDeployCleanupStack"
	if name := os.Getenv("CLEANUP_STACK_NAME"); name != "" {
		stackName = name
	}

	NewCleanupStack(app, stackName, cfg)
	app.Synth(nil)
}
