package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dump <schema>",
		Short: "Print the resolved model of one schema as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := loadOrchestrator()
			if err != nil {
				return err
			}
			rc, err := orch.LoadContext(args[0])
			if err != nil {
				return err
			}
			data, err := rc.Model.Snapshot()
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if output != "" {
				return os.WriteFile(output, data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the model dump to this path instead of stdout")
	return cmd
}
