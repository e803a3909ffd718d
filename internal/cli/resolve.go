package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/orm"
)

// ResolveResult is the resolve command output.
type ResolveResult struct {
	Parent   string        `json:"parent"`
	Relation string        `json:"relation"`
	Kind     string        `json:"kind"`
	Entities []ir.IRObject `json:"entities"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <table> <key> <relation>",
		Short: "Load an entity and print one of its relations",
		Long: `Find the entity of <table> whose primary key is <key> and resolve the
named relation declared in the configuration.

Keys that parse as integers are matched as integers.

Example:
  barry resolve --config ./config.yaml users 1 posts
  barry resolve --config ./config.yaml --format json posts 7 author`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, cmd, args[0], args[1], args[2])
		},
	}
}

func runResolve(opts *RootOptions, cmd *cobra.Command, table, rawKey, name string) error {
	formatter := opts.formatter(cmd)
	cfg, err := opts.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return formatter.Fail(ExitFailure, "invalid configuration", err)
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	repo := orm.NewRepository(st, catalog)

	parent, err := repo.Find(ctx, table, parseKey(rawKey))
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to load parent", err)
	}
	rel, err := repo.Related(parent, name)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to build relation", err)
	}
	result, err := rel.Results(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, "failed to resolve relation", err)
	}

	out := ResolveResult{
		Parent:   parent.String(),
		Relation: name,
		Kind:     result.Kind.String(),
		Entities: make([]ir.IRObject, 0, result.Len()),
	}
	lines := []string{fmt.Sprintf("%s.%s (%s): %d", out.Parent, name, out.Kind, result.Len())}
	for _, e := range result.All() {
		obj := e.Attributes().Object()
		out.Entities = append(out.Entities, obj)
		lines = append(lines, "  "+ir.Format(obj))
	}

	return formatter.Success(out, lines...)
}

// parseKey reads an integer key when possible and a string key otherwise.
func parseKey(raw string) ir.IRValue {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ir.IRInt(n)
	}
	return ir.IRString(raw)
}
