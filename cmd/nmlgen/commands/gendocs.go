package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenDocsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "gen-docs <schema>",
		Short: "Generate Markdown documentation for one schema",
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
			return orch.Emit(cmd.Context(), "markdown", rc, orch.Options(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path for the documentation page")
	return cmd
}
