package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"andrewsaputra/pipeline-trigger-lambda/internal/config"
)

// newStatusCmd prints the stored infra status, "on" when none is stored.
func newStatusCmd(env Env) *cobra.Command {
	var parameter string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the desired infra status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, env, 0)
			if err != nil {
				return err
			}
			if parameter != "" {
				cfg.StatusParameter = parameter
			}
			if err := cfg.Require(config.StatusParameter); err != nil {
				return err
			}

			store, err := env.NewStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			status, err := store.GetStatus(cmd.Context(), cfg.StatusParameter)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), status)
			return err
		},
	}

	cmd.Flags().StringVar(&parameter, "parameter", "", "infra status parameter name")
	return cmd
}
