// pipeline-trigger Lambda records the desired infra status, stamps the
// trigger time and starts the deployment pipeline.
package main

import (
	"context"
	"log/slog"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"andrewsaputra/pipeline-trigger-lambda/internal/activator"
	"andrewsaputra/pipeline-trigger-lambda/internal/config"
	intlambda "andrewsaputra/pipeline-trigger-lambda/internal/lambda"
)

// handleRequest returns a nil response for events it ignores, which the
// Lambda runtime serializes as null.
func handleRequest(ctx context.Context, d *intlambda.Deps, event activator.Event) (*activator.Response, error) {
	resp, err := d.Activator.Activate(ctx, event)
	if err != nil {
		d.Logger.Error("activation failed", "status", event.Status, "error", err)
		return nil, err
	}
	return resp, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	d, err := intlambda.Init(context.Background(), config.Activator)
	if err != nil {
		slog.Error("init failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(d.Logger)

	awslambda.Start(func(ctx context.Context, event activator.Event) (*activator.Response, error) {
		return handleRequest(ctx, d, event)
	})
}
