package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <schema> <namelist-file>",
		Short: "Validate a namelist file against its schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := loadOrchestrator()
			if err != nil {
				return err
			}
			report, err := orch.ValidateFile(args[0], args[1])
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, string(data))
			} else if report.Valid {
				color.Green("%s: VALID (&%s)", report.Path, report.Block)
			} else {
				color.Red("%s: %s", report.Path, report.Status)
				if report.Message != "" {
					fmt.Fprintln(os.Stderr, "  "+report.Message)
				}
			}

			if !report.Valid {
				return fmt.Errorf("validation failed: %s", report.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
