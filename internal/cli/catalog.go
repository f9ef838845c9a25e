package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ontoforge.io/ontoforge/internal/catalog"
	"ontoforge.io/ontoforge/internal/schema"
)

type catalogFlags struct {
	noBase bool
}

func (f *catalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noBase, "no-base", false, "do not preload the built-in BaseNode and BaseRelation")
}

// load builds a fresh registry from paths.
func (f *catalogFlags) load(paths []string) (*schema.Registry, catalog.Stats, error) {
	docs, err := catalog.LoadFiles(paths...)
	if err != nil {
		return nil, catalog.Stats{}, err
	}
	if !f.noBase {
		docs = append([]*catalog.Document{catalog.Base()}, docs...)
	}
	reg := schema.NewRegistry()
	stats, err := catalog.Build(reg, docs...)
	if err != nil {
		return nil, catalog.Stats{}, err
	}
	return reg, stats, nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var flags catalogFlags

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that catalog files register cleanly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, stats, err := flags.load(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			successColor := color.New(color.FgGreen, color.Bold)
			successColor.Fprint(out, "✓ catalog valid: ")
			fmt.Fprintf(out, "%d documents, %d nodes, %d relations\n", stats.Documents, stats.Nodes, stats.Relations)
			for _, ref := range reg.Refs() {
				fmt.Fprintf(out, "  %s\n", ref)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	var flags catalogFlags

	cmd := &cobra.Command{
		Use:       "show node|relation NAME [FILE...]",
		Short:     "Print a resolved schema as JSON",
		ValidArgs: []string{string(schema.KindNode), string(schema.KindRelation)},
		Args:      cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := schema.Kind(args[0])
			if kind != schema.KindNode && kind != schema.KindRelation {
				return fmt.Errorf("unknown schema kind %q, want node or relation", args[0])
			}
			reg, _, err := flags.load(args[2:])
			if err != nil {
				return err
			}

			var v any
			if kind == schema.KindNode {
				v, err = reg.Node(args[1])
			} else {
				v, err = reg.Relation(args[1])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	flags.register(cmd)
	return cmd
}
