// Package activator records the desired infra status and starts the
// deployment pipeline.
package activator

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"andrewsaputra/pipeline-trigger-lambda/internal/infra"
)

// ProcessedBody is the JSON-encoded acknowledgment body.
const ProcessedBody = `"Processed"`

// Event is the pipeline-trigger invocation payload.
type Event struct {
	Status string `json:"status"`
}

// Response acknowledges a processed event.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// StateWriter persists the status and the trigger timestamp.
type StateWriter interface {
	PutStatus(ctx context.Context, name string, status infra.Status) error
	PutTriggerTimestamp(ctx context.Context, name string, t time.Time) error
}

// Starter starts a pipeline execution and returns its id.
type Starter interface {
	Start(ctx context.Context, name string) (string, error)
}

// Settings names the pipeline and parameters an Activator writes to.
type Settings struct {
	PipelineName       string
	StatusParameter    string
	TimestampParameter string
}

// Activator writes state then starts the pipeline. It keeps no state between
// calls and is safe for concurrent use if its dependencies are.
type Activator struct {
	settings Settings
	state    StateWriter
	pipeline Starter
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Activator.
type Option func(*Activator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Activator) { a.now = now }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Activator) { a.logger = l }
}

// New creates an Activator.
func New(settings Settings, state StateWriter, pipeline Starter, opts ...Option) *Activator {
	a := &Activator{
		settings: settings,
		state:    state,
		pipeline: pipeline,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Activate handles one event. A status other than "on" or "off" is ignored:
// nothing is written and the returned response is nil. Errors from the
// parameter store or CodePipeline are returned unmodified and nothing is
// retried.
func (a *Activator) Activate(ctx context.Context, event Event) (*Response, error) {
	status, ok := infra.ParseStatus(event.Status)
	if !ok {
		a.logger.Info("ignoring event", "status", event.Status)
		return nil, nil
	}

	now := a.now()

	if err := a.state.PutStatus(ctx, a.settings.StatusParameter, status); err != nil {
		return nil, err
	}
	a.logger.Info("updated infra status", "parameter", a.settings.StatusParameter, "status", status)

	if err := a.state.PutTriggerTimestamp(ctx, a.settings.TimestampParameter, now); err != nil {
		return nil, err
	}
	a.logger.Info("recorded trigger timestamp", "parameter", a.settings.TimestampParameter, "timestamp", now.Unix())

	executionID, err := a.pipeline.Start(ctx, a.settings.PipelineName)
	if err != nil {
		return nil, err
	}
	a.logger.Info("pipeline started", "pipeline", a.settings.PipelineName, "executionID", executionID)

	return &Response{StatusCode: http.StatusOK, Body: ProcessedBody}, nil
}
