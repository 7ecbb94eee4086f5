package commands

import (
	"github.com/spf13/cobra"

	"github.com/nmltools/go-nmlgen/pkg/orchestrator"
)

func newGenerateCmd() *cobra.Command {
	var failFast bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate every target the project config declares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []orchestrator.Option
			if cmd.Flags().Changed("fail-fast") {
				opts = append(opts, orchestrator.WithFailFast(failFast))
			}
			orch, err := loadOrchestrator(opts...)
			if err != nil {
				return err
			}
			return orch.GenerateAll(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "abort the batch on the first failing schema")
	return cmd
}
