// Package pipeline starts CodePipeline executions and reports job action results.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	cptypes "github.com/aws/aws-sdk-go-v2/service/codepipeline/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// maxFailureMessage is the CodePipeline limit on FailureDetails.Message.
const maxFailureMessage = 5000

// CodePipelineAPI is the subset of the CodePipeline client used by Client.
type CodePipelineAPI interface {
	StartPipelineExecution(ctx context.Context, params *codepipeline.StartPipelineExecutionInput, optFns ...func(*codepipeline.Options)) (*codepipeline.StartPipelineExecutionOutput, error)
	PutJobSuccessResult(ctx context.Context, params *codepipeline.PutJobSuccessResultInput, optFns ...func(*codepipeline.Options)) (*codepipeline.PutJobSuccessResultOutput, error)
	PutJobFailureResult(ctx context.Context, params *codepipeline.PutJobFailureResultInput, optFns ...func(*codepipeline.Options)) (*codepipeline.PutJobFailureResultOutput, error)
}

// Client wraps CodePipeline.
type Client struct {
	api      CodePipelineAPI
	newToken func() string
}

// New wraps a CodePipeline client.
func New(api CodePipelineAPI) *Client {
	return &Client{api: api, newToken: uuid.NewString}
}

// Start requests a new execution of the named pipeline and returns its
// execution id. SDK errors are returned as-is.
func (c *Client) Start(ctx context.Context, name string) (string, error) {
	out, err := c.api.StartPipelineExecution(ctx, &codepipeline.StartPipelineExecutionInput{
		Name:               aws.String(name),
		ClientRequestToken: aws.String(c.newToken()),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.PipelineExecutionId), nil
}

// Succeed marks a job action as successful and publishes its output variables.
func (c *Client) Succeed(ctx context.Context, jobID string, outputVariables map[string]string) error {
	_, err := c.api.PutJobSuccessResult(ctx, &codepipeline.PutJobSuccessResultInput{
		JobId:           aws.String(jobID),
		OutputVariables: outputVariables,
	})
	if err != nil {
		return fmt.Errorf("reporting success for job %s: %w", jobID, err)
	}
	return nil
}

// Fail marks a job action as failed with cause as its message.
func (c *Client) Fail(ctx context.Context, jobID, executionID string, cause error) error {
	in := &codepipeline.PutJobFailureResultInput{
		JobId: aws.String(jobID),
		FailureDetails: &cptypes.FailureDetails{
			Type:    cptypes.FailureTypeJobFailed,
			Message: aws.String(FailureMessage(cause)),
		},
	}
	if executionID != "" {
		in.FailureDetails.ExternalExecutionId = aws.String(executionID)
	}
	if _, err := c.api.PutJobFailureResult(ctx, in); err != nil {
		return fmt.Errorf("reporting failure for job %s: %w", jobID, err)
	}
	return nil
}

// FailureMessage renders err for the pipeline console, prefixing the AWS
// error code when err came from an AWS API call.
func FailureMessage(err error) string {
	msg := err.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.ErrorCode() + ": " + msg
	}
	if len(msg) > maxFailureMessage {
		msg = msg[:maxFailureMessage]
	}
	return msg
}
