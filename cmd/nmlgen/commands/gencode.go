package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenCodeCmd() *cobra.Command {
	var (
		output string
		helper string
	)

	cmd := &cobra.Command{
		Use:   "gen-code <schema>",
		Short: "Generate the Fortran module for one schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			orch, err := loadOrchestrator()
			if err != nil {
				return err
			}
			rc, err := orch.LoadContext(args[0])
			if err != nil {
				return err
			}
			if err := orch.Emit(cmd.Context(), "fortran", rc, orch.Options(), output); err != nil {
				return err
			}
			if helper != "" {
				return orch.Emit(cmd.Context(), "fortran-helper", rc, orch.Options(), helper)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path for the generated module")
	cmd.Flags().StringVar(&helper, "helper", "", "also write the shared helper module to this path")
	return cmd
}
