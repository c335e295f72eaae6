package cleanup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/codedeploy-cleanup/pkg/types"
)

const asgXMLNS = "http://autoscaling.amazonaws.com/doc/2011-01-01/"

// awsServer answers Auto Scaling, CloudWatch Events and Lambda requests
// with per-operation status codes so the real SDK clients populate result
// metadata the way AWS does.
type awsServer struct {
	*httptest.Server

	mu       sync.Mutex
	statuses map[string]int
	ops      []string
}

func newAWSServer(t *testing.T, overrides map[string]int) *awsServer {
	t.Helper()
	s := &awsServer{statuses: map[string]int{
		"AddPermission":    http.StatusCreated,
		"RemovePermission": http.StatusNoContent,
	}}
	for op, code := range overrides {
		s.statuses[op] = code
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func operation(r *http.Request) string {
	if target := r.Header.Get("X-Amz-Target"); target != "" {
		return strings.TrimPrefix(target, "AWSEvents.")
	}
	if strings.Contains(r.URL.Path, "/functions/") {
		if r.Method == http.MethodDelete {
			return "RemovePermission"
		}
		return "AddPermission"
	}
	_ = r.ParseForm()
	return r.Form.Get("Action")
}

func (s *awsServer) handle(w http.ResponseWriter, r *http.Request) {
	op := operation(r)
	_, _ = io.Copy(io.Discard, r.Body)

	s.mu.Lock()
	s.ops = append(s.ops, op)
	status, ok := s.statuses[op]
	s.mu.Unlock()
	if !ok {
		status = http.StatusOK
	}

	var body, contentType string
	switch op {
	case "PutRule":
		contentType = "application/x-amz-json-1.1"
		body = fmt.Sprintf(`{"RuleArn":%q}`, testRuleARN)
	case "PutTargets", "RemoveTargets":
		contentType = "application/x-amz-json-1.1"
		body = `{"FailedEntryCount":0,"FailedEntries":[]}`
	case "DeleteRule":
		contentType = "application/x-amz-json-1.1"
		body = `{}`
	case "AddPermission":
		contentType = "application/json"
		body = `{"Statement":"{}"}`
	case "RemovePermission":
		contentType = "application/json"
	case "DescribeAutoScalingGroups":
		contentType = "text/xml"
		body = `<DescribeAutoScalingGroupsResponse xmlns="` + asgXMLNS + `">` +
			`<DescribeAutoScalingGroupsResult><AutoScalingGroups><member>` +
			`<AutoScalingGroupName>CodeDeploy_g1_d1</AutoScalingGroupName>` +
			`</member></AutoScalingGroups></DescribeAutoScalingGroupsResult>` +
			`<ResponseMetadata><RequestId>req-describe</RequestId></ResponseMetadata>` +
			`</DescribeAutoScalingGroupsResponse>`
	case "DeleteAutoScalingGroup":
		contentType = "text/xml"
		body = `<DeleteAutoScalingGroupResponse xmlns="` + asgXMLNS + `">` +
			`<ResponseMetadata><RequestId>req-delete</RequestId></ResponseMetadata>` +
			`</DeleteAutoScalingGroupResponse>`
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Amzn-RequestId", "req-"+op)
	w.WriteHeader(status)
	if body != "" && status != http.StatusNoContent {
		_, _ = io.WriteString(w, body)
	}
}

func (s *awsServer) called() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func staticCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret", Source: "test"}, nil
	})
}

// newServerCleaner builds a Cleaner whose clients are the real SDK clients
// pointed at s.
func newServerCleaner(s *awsServer) *Cleaner {
	asg := autoscaling.New(autoscaling.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(s.URL),
		Credentials:      staticCredentials(),
		HTTPClient:       s.Client(),
		RetryMaxAttempts: 1,
	})
	events := eventbridge.New(eventbridge.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(s.URL),
		Credentials:      staticCredentials(),
		HTTPClient:       s.Client(),
		RetryMaxAttempts: 1,
	})
	perms := lambdasvc.New(lambdasvc.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(s.URL),
		Credentials:      staticCredentials(),
		HTTPClient:       s.Client(),
		RetryMaxAttempts: 1,
	})
	return New(asg, events, perms, 90,
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
	)
}

func TestStatusCodes_ThroughSDKClients(t *testing.T) {
	tests := []struct {
		name        string
		cleanup     bool
		statuses    map[string]int
		wantOutcome types.Outcome
		wantErr     string
		notCalled   string
	}{
		{
			name:        "notify with documented codes",
			wantOutcome: types.OutcomeScheduled,
		},
		{
			name:     "add permission 200 instead of 201",
			statuses: map[string]int{"AddPermission": http.StatusOK},
			wantErr:  "AddPermission: unexpected status code: got 200, want 201",
		},
		{
			name:      "put rule 202",
			statuses:  map[string]int{"PutRule": http.StatusAccepted},
			wantErr:   "PutRule: unexpected status code: got 202, want 200",
			notCalled: "PutTargets",
		},
		{
			name:      "put targets 202",
			statuses:  map[string]int{"PutTargets": http.StatusAccepted},
			wantErr:   "PutTargets: unexpected status code: got 202, want 200",
			notCalled: "AddPermission",
		},
		{
			name:        "cleanup with documented codes",
			cleanup:     true,
			wantOutcome: types.OutcomeCleaned,
		},
		{
			name:      "remove permission 200 instead of 204",
			cleanup:   true,
			statuses:  map[string]int{"RemovePermission": http.StatusOK},
			wantErr:   "RemovePermission: unexpected status code: got 200, want 204",
			notCalled: "DeleteAutoScalingGroup",
		},
		{
			name:      "delete rule 202",
			cleanup:   true,
			statuses:  map[string]int{"DeleteRule": http.StatusAccepted},
			wantErr:   "DeleteRule: unexpected status code: got 202, want 200",
			notCalled: "RemovePermission",
		},
		{
			name:     "delete auto scaling group 202",
			cleanup:  true,
			statuses: map[string]int{"DeleteAutoScalingGroup": http.StatusAccepted},
			wantErr:  "DeleteAutoScalingGroup: unexpected status code: got 202, want 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAWSServer(t, tt.statuses)
			c := newServerCleaner(srv)

			var (
				outcome types.Outcome
				err     error
			)
			if tt.cleanup {
				outcome, err = c.Cleanup(context.Background(), testDeployment, testFunctionARN)
			} else {
				outcome, err = c.Notify(context.Background(), failedNotification(), testFunctionARN)
			}

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnexpectedStatus)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, outcome)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOutcome, outcome)
			}
			if tt.notCalled != "" {
				assert.NotContains(t, srv.called(), tt.notCalled)
			}
		})
	}
}

func TestHTTPStatus_Captured(t *testing.T) {
	srv := newAWSServer(t, nil)
	c := newServerCleaner(srv)

	out, err := c.perms.AddPermission(context.Background(), &lambdasvc.AddPermissionInput{
		FunctionName: aws.String(testFunctionARN),
		StatementId:  aws.String("CodeDeployCleanup-g1-d1"),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String("events.amazonaws.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, httpStatus(out.ResultMetadata))
	assert.Equal(t, "req-AddPermission", requestID(out.ResultMetadata))
}
