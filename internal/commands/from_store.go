package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"andrewsaputra/pipeline-trigger-lambda/internal/config"
	"andrewsaputra/pipeline-trigger-lambda/internal/paramstore"
	"andrewsaputra/pipeline-trigger-lambda/internal/trigger"
)

func newFromStoreCmd(env Env) *cobra.Command {
	var (
		parameter string
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "from-store",
		Short: "Classify using the trigger timestamp stored in Parameter Store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, env, 0)
			if err != nil {
				return err
			}
			if parameter != "" {
				cfg.TimestampParameter = parameter
			}
			if cmd.Flags().Changed("diff-seconds") {
				cfg.Tolerance = tolerance
			}
			if err := cfg.Require(config.TimestampParameter); err != nil {
				return err
			}

			now := env.Now()
			store, err := env.NewStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			source := trigger.SourceGitHub
			stored, err := store.GetTriggerTimestamp(cmd.Context(), cfg.TimestampParameter)
			switch {
			case errors.Is(err, paramstore.ErrTimestampNotFound):
				slog.Warn("no trigger timestamp stored, assuming github", "parameter", cfg.TimestampParameter)
			case err != nil:
				return err
			default:
				source = trigger.Classify(stored, cfg.Tolerance, now)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), source)
			return err
		},
	}

	cmd.Flags().StringVar(&parameter, "parameter", "", "trigger timestamp parameter name")
	cmd.Flags().Float64Var(&tolerance, "diff-seconds", trigger.DefaultTolerance, "allowed time difference in seconds")
	return cmd
}
