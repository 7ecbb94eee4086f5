package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGenTemplateCmd() *cobra.Command {
	var (
		output    string
		valueMode string
		docMode   string
		sets      []string
	)

	cmd := &cobra.Command{
		Use:   "gen-template <schema>",
		Short: "Generate a namelist input template for one schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			overrides, err := parseSets(sets)
			if err != nil {
				return err
			}
			orch, err := loadOrchestrator()
			if err != nil {
				return err
			}
			rc, err := orch.LoadContext(args[0])
			if err != nil {
				return err
			}
			opts := orch.Options()
			opts.ValueMode = valueMode
			opts.DocMode = docMode
			opts.Overrides = overrides
			return orch.Emit(cmd.Context(), "template", rc, opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path for the template")
	cmd.Flags().StringVar(&valueMode, "mode", "empty", "value mode: empty, filled, minimal-empty, or minimal-filled")
	cmd.Flags().StringVar(&docMode, "doc-mode", "plain", "doc mode: plain or doc")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a field value as field=value (repeatable)")
	return cmd
}

func parseSets(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(raw))
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", entry)
		}
		overrides[name] = strings.TrimSpace(value)
	}
	return overrides, nil
}
