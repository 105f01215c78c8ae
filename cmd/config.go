// File: cmd/config.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/tactician/internal/decision"
)

func newConfigCmd(a *app) *cobra.Command {
	var showRules bool

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Config prints the configuration after defaults, the config file and
TACTICIAN_* environment overrides have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()

			if err := enc.Encode(a.cfg); err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			if !showRules {
				return nil
			}

			rules := decision.PriorityRules(a.cfg.Priority())
			table := make([]map[string]string, len(rules))
			for i, r := range rules {
				table[i] = map[string]string{
					"name":      r.Name,
					"condition": r.Condition,
					"priority":  r.Tier.String(),
				}
			}
			if err := enc.Encode(map[string]any{"priority_rules": table}); err != nil {
				return fmt.Errorf("failed to render priority rules: %w", err)
			}
			return nil
		},
	}

	configCmd.Flags().BoolVar(&showRules, "rules", false, "also print the compiled priority decision table")
	return configCmd
}
