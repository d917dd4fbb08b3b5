package lambda

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"andrewsaputra/pipeline-trigger-lambda/internal/artifact"
	"andrewsaputra/pipeline-trigger-lambda/internal/config"
)

func TestInit_MissingConfig(t *testing.T) {
	t.Setenv(config.EnvPipelineName, "")
	t.Setenv(config.EnvStatusParameter, "")
	t.Setenv(config.EnvTimestampParameter, "")

	_, err := Init(context.Background(), config.Activator)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingConfig))
}

func TestInit_BuildsDeps(t *testing.T) {
	t.Setenv(config.EnvPipelineName, "learn-code-pipeline")
	t.Setenv(config.EnvStatusParameter, "/cdk/learn/infraStatusDev")
	t.Setenv(config.EnvTimestampParameter, "/cdk/learn/triggerTimestampDev")
	t.Setenv(config.EnvRegion, "ap-northeast-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	d, err := Init(context.Background(), config.Activator)
	require.NoError(t, err)
	assert.NotNil(t, d.Store)
	assert.NotNil(t, d.Pipeline)
	assert.NotNil(t, d.Activator)
	assert.NotNil(t, d.Artifacts)
	assert.Equal(t, "learn-code-pipeline", d.Config.PipelineName)
}

func TestNew(t *testing.T) {
	cfg := &config.Config{PipelineName: "p", StatusParameter: "s", TimestampParameter: "t"}
	d := New(cfg, nil, nil, artifact.NewS3Client, slog.Default())
	assert.Same(t, cfg, d.Config)
	assert.NotNil(t, d.Activator)
}
