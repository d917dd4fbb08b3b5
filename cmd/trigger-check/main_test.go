package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	cptypes "github.com/aws/aws-sdk-go-v2/service/codepipeline/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"andrewsaputra/pipeline-trigger-lambda/internal/artifact"
	"andrewsaputra/pipeline-trigger-lambda/internal/config"
	intlambda "andrewsaputra/pipeline-trigger-lambda/internal/lambda"
)

type mockSSMClient struct {
	values map[string]string
	getErr error
	gets   []string
}

func (m *mockSSMClient) PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	panic("trigger-check must not write parameters")
}

func (m *mockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(params.Name)
	m.gets = append(m.gets, name)
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.values[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(v)}}, nil
}

type mockCodePipelineClient struct {
	successes []*codepipeline.PutJobSuccessResultInput
	failures  []*codepipeline.PutJobFailureResultInput
}

func (m *mockCodePipelineClient) StartPipelineExecution(ctx context.Context, params *codepipeline.StartPipelineExecutionInput, optFns ...func(*codepipeline.Options)) (*codepipeline.StartPipelineExecutionOutput, error) {
	panic("trigger-check must not start pipelines")
}

func (m *mockCodePipelineClient) PutJobSuccessResult(ctx context.Context, params *codepipeline.PutJobSuccessResultInput, optFns ...func(*codepipeline.Options)) (*codepipeline.PutJobSuccessResultOutput, error) {
	m.successes = append(m.successes, params)
	return &codepipeline.PutJobSuccessResultOutput{}, nil
}

func (m *mockCodePipelineClient) PutJobFailureResult(ctx context.Context, params *codepipeline.PutJobFailureResultInput, optFns ...func(*codepipeline.Options)) (*codepipeline.PutJobFailureResultOutput, error) {
	m.failures = append(m.failures, params)
	return &codepipeline.PutJobFailureResultOutput{}, nil
}

type mockS3Client struct {
	bodies [][]byte
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(params.Body)
	m.bodies = append(m.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

const timestampParam = "/cdk/learn/triggerTimestampDev"

var fixedNow = time.Unix(1_718_000_000, 0)

func clock() time.Time { return fixedNow }

type fixture struct {
	ssm  *mockSSMClient
	cp   *mockCodePipelineClient
	s3   *mockS3Client
	deps *intlambda.Deps
}

func newFixture(values map[string]string) *fixture {
	f := &fixture{
		ssm: &mockSSMClient{values: values},
		cp:  &mockCodePipelineClient{},
		s3:  &mockS3Client{},
	}
	cfg := &config.Config{TimestampParameter: timestampParam, Tolerance: 120}
	newS3 := func(ctx context.Context, creds *cptypes.AWSSessionCredentials, region string) (artifact.S3API, error) {
		return f.s3, nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.deps = intlambda.New(cfg, f.ssm, f.cp, newS3, logger)
	return f
}

func jobEvent(userParameters string, withOutput bool) intlambda.CodePipelineEvent {
	data := &cptypes.JobData{
		ActionConfiguration: &cptypes.ActionConfiguration{
			Configuration: map[string]string{"UserParameters": userParameters},
		},
	}
	if withOutput {
		data.OutputArtifacts = []cptypes.Artifact{{
			Name: aws.String("TriggerOutput"),
			Location: &cptypes.ArtifactLocation{S3Location: &cptypes.S3ArtifactLocation{
				BucketName: aws.String("bucket"),
				ObjectKey:  aws.String("key"),
			}},
		}}
	}
	return intlambda.CodePipelineEvent{JobDetails: &cptypes.JobDetails{Id: aws.String("job-1"), Data: data}}
}

func TestHandleRequest_RecentTimestamp(t *testing.T) {
	f := newFixture(map[string]string{timestampParam: "1717999940.000000"})

	require.NoError(t, handleRequest(context.Background(), f.deps, clock, jobEvent("", false)))
	require.Len(t, f.cp.successes, 1)
	assert.Equal(t, "job-1", aws.ToString(f.cp.successes[0].JobId))
	assert.Equal(t, map[string]string{"TRIGGER": "lambda"}, f.cp.successes[0].OutputVariables)
	assert.Empty(t, f.s3.bodies)
}

func TestHandleRequest_StaleTimestamp(t *testing.T) {
	f := newFixture(map[string]string{timestampParam: "1717999700"})

	require.NoError(t, handleRequest(context.Background(), f.deps, clock, jobEvent("", true)))
	assert.Equal(t, "github", f.cp.successes[0].OutputVariables["TRIGGER"])
	require.Len(t, f.s3.bodies, 1)
}

func TestHandleRequest_UserParameters(t *testing.T) {
	f := newFixture(map[string]string{"/other": "1717999700"})

	err := handleRequest(context.Background(), f.deps, clock, jobEvent(`{"toleranceSeconds": 600, "parameter": "/other"}`, false))
	require.NoError(t, err)
	assert.Equal(t, []string{"/other"}, f.ssm.gets)
	assert.Equal(t, "lambda", f.cp.successes[0].OutputVariables["TRIGGER"])
}

func TestHandleRequest_NoTimestampStored(t *testing.T) {
	f := newFixture(nil)

	require.NoError(t, handleRequest(context.Background(), f.deps, clock, jobEvent("", false)))
	assert.Equal(t, "github", f.cp.successes[0].OutputVariables["TRIGGER"])
}

func TestHandleRequest_ReadFailureReportsJobFailure(t *testing.T) {
	f := newFixture(nil)
	f.ssm.getErr = assert.AnError

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-9"})
	err := handleRequest(ctx, f.deps, clock, jobEvent("", false))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, f.cp.successes)
	require.Len(t, f.cp.failures, 1)
	fd := f.cp.failures[0].FailureDetails
	assert.Equal(t, cptypes.FailureTypeJobFailed, fd.Type)
	assert.Equal(t, "req-9", aws.ToString(fd.ExternalExecutionId))
}

func TestHandleRequest_BadUserParameters(t *testing.T) {
	f := newFixture(nil)

	err := handleRequest(context.Background(), f.deps, clock, jobEvent("{", false))
	assert.Error(t, err)
	require.Len(t, f.cp.failures, 1)
	assert.Empty(t, f.ssm.gets)
}

func TestHandleRequest_NoJob(t *testing.T) {
	f := newFixture(nil)

	err := handleRequest(context.Background(), f.deps, clock, intlambda.CodePipelineEvent{})
	assert.Error(t, err)
	assert.Empty(t, f.cp.failures)
}

func TestCodePipelineEventJSON(t *testing.T) {
	var ev intlambda.CodePipelineEvent
	require.NoError(t, json.Unmarshal([]byte(`{"CodePipeline.job":{"id":"job-7","data":{}}}`), &ev))

	f := newFixture(nil)
	require.NoError(t, handleRequest(context.Background(), f.deps, clock, ev))
	assert.Equal(t, "job-7", aws.ToString(f.cp.successes[0].JobId))
}
