// Package commands implements the check-trigger CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"andrewsaputra/pipeline-trigger-lambda/internal/config"
	"andrewsaputra/pipeline-trigger-lambda/internal/paramstore"
	"andrewsaputra/pipeline-trigger-lambda/internal/trigger"
)

// Env carries the collaborators the commands use, replaced in tests.
type Env struct {
	Now      func() time.Time
	Lookup   func(string) (string, bool)
	NewStore func(ctx context.Context, cfg *config.Config) (*paramstore.Store, error)
}

// DefaultEnv uses the wall clock, the process environment and a real SSM client.
func DefaultEnv() Env {
	return Env{
		Now:      time.Now,
		Lookup:   os.LookupEnv,
		NewStore: newSSMStore,
	}
}

func newSSMStore(ctx context.Context, cfg *config.Config) (*paramstore.Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return paramstore.New(ssm.NewFromConfig(awsCfg)), nil
}

// NewRootCmd creates the check-trigger command. Run without a subcommand it
// classifies the timestamp given on the command line.
func NewRootCmd(env Env) *cobra.Command {
	var (
		stored    float64
		tolerance float64
	)

	root := &cobra.Command{
		Use:   "check-trigger",
		Short: "Decide whether a pipeline run was started by the trigger Lambda or by a push",
		Long: `check-trigger compares the timestamp recorded by the pipeline-trigger Lambda
with the current time. A timestamp at most --diff-seconds old prints "lambda";
anything else, including a timestamp in the future, prints "github".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source := trigger.Classify(stored, tolerance, env.Now())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), source)
			return err
		},
	}

	root.Flags().Float64Var(&stored, "lambda-trigger-timestamp", 0, "timestamp from the Lambda trigger (float seconds)")
	root.Flags().Float64Var(&tolerance, "diff-seconds", trigger.DefaultTolerance, "allowed time difference in seconds")
	_ = root.MarkFlagRequired("lambda-trigger-timestamp")

	root.PersistentFlags().String("config", "", "YAML file naming parameters and region")

	root.AddCommand(
		newFromStoreCmd(env),
		newStatusCmd(env),
	)
	return root
}

// loadConfig reads --config when given, otherwise the environment.
func loadConfig(cmd *cobra.Command, env Env, required int) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFile(path, env.Lookup, required)
	}
	return config.FromLookup(env.Lookup, required)
}
