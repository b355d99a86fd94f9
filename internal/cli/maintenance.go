package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizroom/internal/app"
)

func newSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete records left behind by deleted rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(*configPath)
			if err != nil {
				return err
			}
			a, err := app.Connect(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			removed, err := a.Sweeper.Sweep(cmd.Context())
			for coll, n := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d removed\n", coll, n)
			}
			return err
		},
	}
}

func newIndexesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(*configPath)
			if err != nil {
				return err
			}
			a, err := app.Connect(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			failed, err := a.EnsureIndexes(cmd.Context())
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d indexes could not be created", failed)
			}
			return nil
		},
	}
}
