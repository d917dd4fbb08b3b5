package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"andrewsaputra/pipeline-trigger-lambda/internal/activator"
	"andrewsaputra/pipeline-trigger-lambda/internal/artifact"
	"andrewsaputra/pipeline-trigger-lambda/internal/config"
	"andrewsaputra/pipeline-trigger-lambda/internal/paramstore"
	"andrewsaputra/pipeline-trigger-lambda/internal/pipeline"
)

// Deps holds shared dependencies for Lambda handlers. Handlers receive Deps
// explicitly; tests build it from mocks.
type Deps struct {
	Config    *config.Config
	Store     *paramstore.Store
	Pipeline  *pipeline.Client
	Activator *activator.Activator
	Artifacts *artifact.Writer
	Logger    *slog.Logger
}

// NewLogger returns the JSON logger used by every Lambda.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Init reads configuration from the environment, validating the keys
// selected by required, and builds the AWS clients.
func Init(ctx context.Context, required int) (*Deps, error) {
	cfg, err := config.FromLookup(os.LookupEnv, required)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.SlogLevel())

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return New(cfg, ssm.NewFromConfig(awsCfg), codepipeline.NewFromConfig(awsCfg), artifact.NewS3Client, logger), nil
}

// New wires Deps from already constructed clients.
func New(cfg *config.Config, ssmClient paramstore.SSMAPI, cpClient pipeline.CodePipelineAPI, newS3 artifact.ClientFactory, logger *slog.Logger) *Deps {
	store := paramstore.New(ssmClient)
	pl := pipeline.New(cpClient)

	act := activator.New(activator.Settings{
		PipelineName:       cfg.PipelineName,
		StatusParameter:    cfg.StatusParameter,
		TimestampParameter: cfg.TimestampParameter,
	}, store, pl, activator.WithLogger(logger))

	return &Deps{
		Config:    cfg,
		Store:     store,
		Pipeline:  pl,
		Activator: act,
		Artifacts: artifact.NewWriter(newS3, cfg.Region),
		Logger:    logger,
	}
}
