package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docanalyst/internal/combiner"
	"docanalyst/internal/domain"
	"docanalyst/internal/processor"
	"docanalyst/internal/prompt"
)

func newTypesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List analysis types",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			prompts := prompt.NewResolver()
			if path := e.cfg.Prompts.CustomTypesPath; path != "" {
				if err := prompts.LoadFile(path); err != nil {
					return err
				}
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tDESCRIPTION")
			for _, t := range prompts.Types() {
				kind := "custom"
				if t.Builtin {
					kind = "built-in"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, kind, t.Description)
			}
			return tw.Flush()
		},
	}
}

func newFormatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported input and export formats",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			exts := processor.NewDefaultRegistry(nil, nil).Extensions()
			exports := make([]string, len(domain.ExportFormats))
			for i, f := range domain.ExportFormats {
				exports[i] = string(f)
			}
			e.printf("input:      %s\n", strings.Join(exts, ", "))
			e.printf("export:     %s\n", strings.Join(exports, ", "))
			e.printf("split:      %s, %s\n", domain.SplitMethodPage, domain.SplitMethodToken)
			for _, s := range combiner.Strategies() {
				e.printf("strategy:   %-10s  %s\n", s.ID, s.Description)
			}
			return nil
		},
	}
}
