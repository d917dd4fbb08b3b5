// trigger-check Lambda runs as a CodePipeline Invoke action, classifies the
// current execution as started by the pipeline-trigger Lambda or by a push,
// and publishes the result as the TRIGGER output variable.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"andrewsaputra/pipeline-trigger-lambda/internal/config"
	intlambda "andrewsaputra/pipeline-trigger-lambda/internal/lambda"
	"andrewsaputra/pipeline-trigger-lambda/internal/paramstore"
	"andrewsaputra/pipeline-trigger-lambda/internal/trigger"
)

// OutputVariable is the action output variable carrying the trigger source.
const OutputVariable = "TRIGGER"

/**
 *	Reference : https://docs.aws.amazon.com/codepipeline/latest/userguide/action-reference-Lambda.html
 *
 *	Process Sequence :
 *	1. Read optional UserParameters (tolerance, parameter name)
 *	2. Read the trigger timestamp stored by pipeline-trigger
 *	3. Classify against the current time
 *	4. Write trigger.env into the output artifact, if one is declared
 *	5. Report job success with the TRIGGER output variable
 */
func handleRequest(ctx context.Context, d *intlambda.Deps, now func() time.Time, event intlambda.CodePipelineEvent) error {
	jobID := event.JobID()
	if jobID == "" {
		return errors.New("event carries no CodePipeline job id")
	}
	logger := d.Logger.With("jobID", jobID)

	source, err := classify(ctx, d, now, event)
	if err != nil {
		logger.Error("trigger check failed", "error", err)
		if failErr := d.Pipeline.Fail(ctx, jobID, awsRequestID(ctx), err); failErr != nil {
			logger.Error("reporting job failure failed", "error", failErr)
		}
		return err
	}

	logger.Info("trigger classified", "trigger", source)
	return d.Pipeline.Succeed(ctx, jobID, map[string]string{OutputVariable: string(source)})
}

func classify(ctx context.Context, d *intlambda.Deps, now func() time.Time, event intlambda.CodePipelineEvent) (trigger.Source, error) {
	params, err := intlambda.ParseUserParameters(event.Data())
	if err != nil {
		return "", err
	}

	tolerance := d.Config.Tolerance
	if params.ToleranceSeconds != nil {
		tolerance = *params.ToleranceSeconds
	}
	name := d.Config.TimestampParameter
	if params.Parameter != "" {
		name = params.Parameter
	}

	// Sampled before the read so store latency does not age the trigger.
	current := now()

	source := trigger.SourceGitHub
	stored, err := d.Store.GetTriggerTimestamp(ctx, name)
	switch {
	case errors.Is(err, paramstore.ErrTimestampNotFound):
		d.Logger.Info("no trigger timestamp stored", "parameter", name)
	case err != nil:
		return "", err
	default:
		source = trigger.Classify(stored, tolerance, current)
	}

	wrote, err := d.Artifacts.Write(ctx, event.Data(), source)
	if err != nil {
		return "", err
	}
	if wrote {
		d.Logger.Debug("trigger artifact written", "trigger", source)
	}
	return source, nil
}

func awsRequestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	d, err := intlambda.Init(context.Background(), config.TimestampParameter)
	if err != nil {
		slog.Error("init failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(d.Logger)

	awslambda.Start(func(ctx context.Context, event intlambda.CodePipelineEvent) error {
		return handleRequest(ctx, d, time.Now, event)
	})
}
