package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bowphp/framework-sub003/internal/config"
)

// ValidationResult summarizes a valid configuration.
type ValidationResult struct {
	Valid     bool                `json:"valid"`
	Tables    []string            `json:"tables"`
	Relations map[string][]string `json:"relations"`
	Channels  []string            `json:"channels"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a configuration without touching the database",
		Long: `Load a YAML file, CUE file or CUE directory, check it and resolve every
declared relation against the naming conventions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	formatter.VerboseLog("Loading %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		return formatter.Fail(ExitFailure, "invalid configuration", err)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return formatter.Fail(ExitFailure, "invalid configuration", err)
	}

	result := ValidationResult{
		Valid:     true,
		Tables:    catalog.Tables(),
		Relations: make(map[string][]string),
		Channels:  cfg.Channels.Enabled,
	}
	lines := []string{fmt.Sprintf("Configuration valid: %d tables", len(result.Tables))}
	for _, table := range result.Tables {
		rels := catalog.Relations(table)
		result.Relations[table] = rels
		if len(rels) > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %s", table, strings.Join(rels, ", ")))
		}
	}
	if len(result.Channels) > 0 {
		lines = append(lines, "Channels: "+strings.Join(result.Channels, ", "))
	}

	return formatter.Success(result, lines...)
}
