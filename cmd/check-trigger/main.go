// check-trigger prints "lambda" or "github" depending on which source
// started the current pipeline execution.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"andrewsaputra/pipeline-trigger-lambda/internal/commands"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	root := commands.NewRootCmd(commands.DefaultEnv())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
