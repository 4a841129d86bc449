package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"docanalyst/internal/domain"
	"docanalyst/internal/service"
)

type analyzeFlags struct {
	analysisType string
	provider     string
	mode         string
	strategy     string
	splitMethod  string
	chunkSize    int
	autoSplit    bool
	export       string
	outDir       string
}

func newAnalyzeCmd(e *env) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze one or more files",
		Long: `Extracts text from each file and sends it to the AI provider.

In separate mode (the default) every file is analyzed on its own and a failing
file does not stop the others. In combine mode the extracted texts are joined
and analyzed as one document, and any failure aborts the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, e, f, args)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.analysisType, "type", "t", "", "analysis type (see `docanalyst types`)")
	fl.StringVarP(&f.provider, "provider", "p", "", "AI provider (default from config)")
	fl.StringVar(&f.mode, "mode", string(domain.BatchModeSeparate), "separate or combine")
	fl.StringVar(&f.strategy, "strategy", "", "combine chunk results: sequential or summarize")
	fl.StringVar(&f.splitMethod, "split-method", "", "split into chunks by page or token")
	fl.IntVar(&f.chunkSize, "chunk-size", 0, "pages or tokens per chunk")
	fl.BoolVar(&f.autoSplit, "auto-split", false, "split files larger than processing.min_split_size_mb")
	fl.StringVar(&f.export, "export", "", "write results as txt, md, json, docx or pdf instead of printing")
	fl.StringVarP(&f.outDir, "out", "o", ".", "directory for --export files")
	return cmd
}

func runAnalyze(cmd *cobra.Command, e *env, f *analyzeFlags, args []string) error {
	mode := domain.BatchMode(strings.ToLower(f.mode))
	if mode != domain.BatchModeSeparate && mode != domain.BatchModeCombine {
		return fmt.Errorf("invalid --mode %q: expected separate or combine", f.mode)
	}
	strategy, err := parseStrategy(f.strategy)
	if err != nil {
		return err
	}

	var exportFormat domain.ExportFormat
	if f.export != "" {
		if exportFormat, err = domain.ParseExportFormat(f.export); err != nil {
			return fmt.Errorf("--export %q: %w", f.export, err)
		}
	}

	if f.autoSplit {
		e.cfg.Processing.AutoSplit = true
	}
	a, err := e.open()
	if err != nil {
		return err
	}

	files := make([]service.FileRef, len(args))
	for i, p := range args {
		files[i] = service.FileRef{Path: p}
	}

	split, err := e.splitOptions(cmd, f.splitMethod, f.chunkSize, false)
	if err != nil {
		return err
	}
	if split == nil {
		for _, file := range files {
			need, err := a.Analysis.NeedsSplit(file.Path)
			if err != nil {
				return err
			}
			if need {
				split = e.defaultSplit()
				e.eprintf("%s exceeds the auto-split threshold; splitting by %s\n", filepath.Base(file.Path), split.Method)
				break
			}
		}
	}
	if split != nil && strategy == "" {
		strategy = domain.CombineStrategy(e.cfg.Processing.CombineStrategy)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := a.Analysis.AnalyzeBatch(ctx, service.BatchInput{
		Files:        files,
		AnalysisType: f.analysisType,
		Provider:     f.provider,
		Mode:         mode,
		Split:        split,
		Strategy:     strategy,
		Progress:     e.progress,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			e.eprintf("interrupted\n")
		}
		return err
	}

	results := out.Final()
	for _, r := range results {
		if exportFormat == "" {
			e.printResult(r)
			continue
		}
		path, err := e.writeExport(r, exportFormat, f.outDir)
		if err != nil {
			return err
		}
		e.printf("wrote %s\n", path)
	}
	for _, ferr := range out.Errors {
		e.eprintf("error: %v\n", ferr)
	}
	if len(results) == 0 && len(out.Errors) > 0 {
		return fmt.Errorf("no file was analyzed: %w", out.Errors[0])
	}
	return nil
}

func (e *env) progress(p service.Progress) {
	if p.Chunks > 0 {
		e.eprintf("[%s] %s chunk %d/%d\n", p.File, p.State, p.Chunk, p.Chunks)
		return
	}
	e.eprintf("[%s] %s\n", p.File, p.State)
}

func (e *env) printResult(r *domain.AnalysisResult) {
	title := r.FileName
	if r.ChunkCount > 0 {
		title = fmt.Sprintf("%s (chunk %d of %d)", title, r.ChunkIndex, r.ChunkCount)
	}
	e.printf("== %s ==\n", title)
	e.printf("type: %s  provider: %s  id: %s\n\n", r.AnalysisType, r.Provider, r.ID)
	e.printf("%s\n\n", strings.TrimSpace(r.AnalyzedText))
}

// writeExport renders r into dir. Chunk results get a _chunkN suffix so they
// do not overwrite each other.
func (e *env) writeExport(r *domain.AnalysisResult, format domain.ExportFormat, dir string) (string, error) {
	rendered, err := service.RenderResult(r, format)
	if err != nil {
		return "", err
	}
	name := rendered.FileName
	if r.ChunkCount > 0 {
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s_chunk%d%s", strings.TrimSuffix(name, ext), r.ChunkIndex, ext)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, rendered.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// splitOptions builds split options from the flags. Without either flag it
// returns nil unless always is set.
func (e *env) splitOptions(cmd *cobra.Command, method string, size int, always bool) (*domain.SplitOptions, error) {
	methodSet := cmd.Flags().Changed("split-method")
	sizeSet := cmd.Flags().Changed("chunk-size")
	if !methodSet && !sizeSet && !always {
		return nil, nil
	}
	opts := e.defaultSplit()
	if methodSet {
		opts.Method = domain.ParseSplitMethod(method)
		if opts.Method != domain.SplitMethodPage && opts.Method != domain.SplitMethodToken {
			return nil, fmt.Errorf("invalid --split-method %q: expected page or token", method)
		}
	}
	if sizeSet {
		opts.ChunkSize = size
	}
	if opts.ChunkSize < 1 {
		return nil, fmt.Errorf("--chunk-size %d: %w", opts.ChunkSize, domain.ErrInvalidChunkSize)
	}
	return opts, nil
}

func (e *env) defaultSplit() *domain.SplitOptions {
	return &domain.SplitOptions{
		Method:    domain.ParseSplitMethod(e.cfg.Processing.SplitMethod),
		ChunkSize: e.cfg.Processing.ChunkSize,
	}
}

func parseStrategy(s string) (domain.CombineStrategy, error) {
	switch st := domain.CombineStrategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "", domain.CombineSequential, domain.CombineSummarize:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownCombineStrategy, s)
	}
}
