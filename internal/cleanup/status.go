package cleanup

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	eventtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Expected HTTP status codes per operation. Everything not listed expects 200.
const (
	statusAddPermission    = http.StatusCreated
	statusRemovePermission = http.StatusNoContent
)

// httpStatus returns the raw HTTP status recorded in the result metadata,
// or 0 when the response was not captured.
func httpStatus(md middleware.Metadata) int {
	raw, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response)
	if !ok || raw == nil || raw.Response == nil {
		return 0
	}
	return raw.StatusCode
}

// checkStatus rejects a captured status that differs from want.
func checkStatus(op string, got, want int) error {
	if got == 0 || got == want {
		return nil
	}
	return fmt.Errorf("%s: %w: got %d, want %d", op, ErrUnexpectedStatus, got, want)
}

func requestID(md middleware.Metadata) string {
	id, _ := awsmiddleware.GetRequestIDMetadata(md)
	return id
}

func putTargetsFailure(rule string, count int32, entries []eventtypes.PutTargetsResultEntry) error {
	if count == 0 && len(entries) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, fmt.Sprintf("%s: %s %s", aws.ToString(e.TargetId), aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage)))
	}
	return fmt.Errorf("PutTargets on %s: %w (%d): %s", rule, ErrFailedEntries, count, strings.Join(msgs, "; "))
}

func removeTargetsFailure(rule string, count int32, entries []eventtypes.RemoveTargetsResultEntry) error {
	if count == 0 && len(entries) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, fmt.Sprintf("%s: %s %s", aws.ToString(e.TargetId), aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage)))
	}
	return fmt.Errorf("RemoveTargets on %s: %w (%d): %s", rule, ErrFailedEntries, count, strings.Join(msgs, "; "))
}
