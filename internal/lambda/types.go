// Package lambda provides shared types and initialization for the Lambda handlers.
package lambda

import (
	"encoding/json"
	"fmt"
	"strings"

	cptypes "github.com/aws/aws-sdk-go-v2/service/codepipeline/types"
)

// CodePipelineEvent is the payload CodePipeline sends to an Invoke action.
//
// Reference: https://docs.aws.amazon.com/codepipeline/latest/userguide/action-reference-Lambda.html
type CodePipelineEvent struct {
	JobDetails *cptypes.JobDetails `json:"CodePipeline.job"`
}

// JobID returns the job id, or "" when the event carries no job.
func (e CodePipelineEvent) JobID() string {
	if e.JobDetails == nil || e.JobDetails.Id == nil {
		return ""
	}
	return *e.JobDetails.Id
}

// Data returns the job data, or nil.
func (e CodePipelineEvent) Data() *cptypes.JobData {
	if e.JobDetails == nil {
		return nil
	}
	return e.JobDetails.Data
}

// UserParameters is the optional JSON an action passes to the trigger-check
// Lambda through its UserParameters field.
type UserParameters struct {
	ToleranceSeconds *float64 `json:"toleranceSeconds,omitempty"`
	Parameter        string   `json:"parameter,omitempty"`
}

// ParseUserParameters decodes the action's UserParameters. An empty value
// yields zero UserParameters.
func ParseUserParameters(data *cptypes.JobData) (UserParameters, error) {
	var p UserParameters
	if data == nil || data.ActionConfiguration == nil {
		return p, nil
	}
	raw := strings.TrimSpace(data.ActionConfiguration.Configuration["UserParameters"])
	if raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("decoding UserParameters: %w", err)
	}
	if p.ToleranceSeconds != nil && *p.ToleranceSeconds < 0 {
		return p, fmt.Errorf("toleranceSeconds must not be negative, got %v", *p.ToleranceSeconds)
	}
	return p, nil
}
