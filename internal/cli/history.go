package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docanalyst/internal/domain"
	"docanalyst/internal/service"
)

func newHistoryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse, export and combine stored analysis results",
	}
	cmd.AddCommand(
		newHistoryListCmd(e),
		newHistoryShowCmd(e),
		newHistoryDeleteCmd(e),
		newHistoryExportCmd(e),
		newHistoryCombineCmd(e),
	)
	return cmd
}

func newHistoryListCmd(e *env) *cobra.Command {
	var filter domain.HistoryFilter
	var csv bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.open()
			if err != nil {
				return err
			}
			if csv {
				return a.History.WriteCSV(cmd.Context(), e.out, filter)
			}

			entries, total, err := a.History.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tFILE\tTYPE\tANALYSIS\tPROVIDER")
			for _, en := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					en.ID, en.CreatedAt.Format("2006-01-02 15:04"), en.FileName, en.FileType, en.AnalysisType, en.Provider)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			e.printf("\n%d of %d entries\n", len(entries), total)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&filter.Limit, "limit", service.DefaultHistoryLimit, "maximum entries to show")
	fl.IntVar(&filter.Offset, "offset", 0, "entries to skip")
	fl.StringVar(&filter.FileType, "file-type", "", "only entries of this file type (e.g. PDF)")
	fl.StringVar(&filter.AnalysisType, "analysis-type", "", "only entries of this analysis type")
	fl.StringVar(&filter.Provider, "provider", "", "only entries from this provider")
	fl.BoolVar(&csv, "csv", false, "write every matching entry as CSV")
	return cmd
}

func newHistoryShowCmd(e *env) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			entry, err := a.History.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			r := entry.Result
			e.printf("id:        %s\n", entry.ID)
			e.printf("file:      %s (%s)\n", entry.FileName, entry.FileType)
			e.printf("analysis:  %s\n", entry.AnalysisType)
			e.printf("provider:  %s %s\n", entry.Provider, r.Model)
			e.printf("created:   %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
			if r.ChunkCount > 0 {
				e.printf("chunk:     %d of %d\n", r.ChunkIndex, r.ChunkCount)
			}
			e.printf("\n%s\n", strings.TrimSpace(r.AnalyzedText))
			if full {
				e.printf("\n--- original text ---\n%s\n", r.OriginalText)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "also print the original text")
	return cmd
}

func newHistoryDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			if err := a.History.Delete(cmd.Context(), id); err != nil {
				return err
			}
			e.printf("deleted %s\n", id)
			return nil
		},
	}
}

func newHistoryExportCmd(e *env) *cobra.Command {
	var format, outDir string
	var store, remove bool
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a stored result to a file or the configured sink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			f, err := domain.ParseExportFormat(format)
			if err != nil {
				return fmt.Errorf("--format %q: %w", format, err)
			}
			a, err := e.open()
			if err != nil {
				return err
			}

			if remove {
				if err := a.Export.Unstore(cmd.Context(), id, f); err != nil {
					return err
				}
				e.printf("removed stored %s export of %s\n", f, id)
				return nil
			}
			if store {
				stored, err := a.Export.Store(cmd.Context(), id, f)
				if err != nil {
					return err
				}
				e.printf("stored %s at %s\n", stored.Key, stored.Location)
				if stored.URL != "" {
					e.printf("url: %s\n", stored.URL)
				}
				return nil
			}

			rendered, err := a.Export.Render(cmd.Context(), id, f)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			path := filepath.Join(outDir, rendered.FileName)
			if err := os.WriteFile(path, rendered.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			e.printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(domain.ExportTXT), "txt, md, json, docx or pdf")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&store, "store", false, "upload to the configured export sink instead of writing a local file")
	cmd.Flags().BoolVar(&remove, "delete", false, "remove the export previously stored with --store")
	cmd.MarkFlagsMutuallyExclusive("store", "delete")
	return cmd
}

func newHistoryCombineCmd(e *env) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "combine ID...",
		Short: "Combine stored results in the given order and save the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, len(args))
			for i, raw := range args {
				id, err := parseEntryID(raw)
				if err != nil {
					return err
				}
				ids[i] = id
			}
			st, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			if st == "" {
				st = domain.CombineStrategy(e.cfg.Processing.CombineStrategy)
			}
			a, err := e.open()
			if err != nil {
				return err
			}
			combined, err := a.History.Combine(cmd.Context(), ids, st)
			if err != nil {
				return err
			}
			e.printf("combined %d results into %s\n\n", len(ids), combined.ID)
			e.printResult(combined)
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "sequential or summarize (default from config)")
	return cmd
}

func parseEntryID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid entry ID %q", s)
	}
	return id, nil
}
