package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docanalyst/internal/analyzer"
	"docanalyst/internal/combiner"
	"docanalyst/internal/config"
	"docanalyst/internal/domain"
	"docanalyst/internal/port"
	"docanalyst/internal/processor"
	"docanalyst/internal/prompt"
)

// FileSeparator joins extracted texts in a combine-mode batch.
const FileSeparator = "\n\n--- file: %s ---\n\n"

const textInputName = "text_input"

// FileRef points at a staged input file. Name is the display name and
// defaults to the base of Path.
type FileRef struct {
	Path string
	Name string
}

func (f FileRef) name() string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

// Progress is reported on every state transition and chunk boundary.
type Progress struct {
	File   string           `json:"file"`
	State  domain.FileState `json:"state"`
	Chunk  int              `json:"chunk,omitempty"`
	Chunks int              `json:"chunks,omitempty"`
}

// ProgressFunc observes processing progress. It must not block.
type ProgressFunc func(Progress)

// AnalyzeTextInput is the DTO for analysing raw text.
type AnalyzeTextInput struct {
	Text         string
	FileName     string
	AnalysisType string
	Provider     string
}

// AnalyzeFileInput is the DTO for analysing one file. A nil Split analyses
// the whole document in one call; an empty Strategy returns per-chunk results
// without combining them.
type AnalyzeFileInput struct {
	File         FileRef
	AnalysisType string
	Provider     string
	Mode         domain.BatchMode
	Split        *domain.SplitOptions
	Strategy     domain.CombineStrategy
	Progress     ProgressFunc
}

// BatchInput is the DTO for analysing several files.
type BatchInput struct {
	Files        []FileRef
	AnalysisType string
	Provider     string
	Mode         domain.BatchMode
	Split        *domain.SplitOptions
	Strategy     domain.CombineStrategy
	Progress     ProgressFunc
}

// FileOutcome is the result of processing one file.
type FileOutcome struct {
	File     string                   `json:"file"`
	State    domain.FileState         `json:"state"`
	Results  []*domain.AnalysisResult `json:"results,omitempty"`
	Combined *domain.AnalysisResult   `json:"combined,omitempty"`
	Errors   []error                  `json:"-"`
}

// Final returns the combined result when there is one, else every result.
func (o *FileOutcome) Final() []*domain.AnalysisResult {
	if o.Combined != nil {
		return []*domain.AnalysisResult{o.Combined}
	}
	return o.Results
}

// BatchOutcome is the result of a batch. Files keeps input order. In combine
// mode Files is empty and the output sits in Results and Combined.
type BatchOutcome struct {
	Files    []*FileOutcome           `json:"files,omitempty"`
	Results  []*domain.AnalysisResult `json:"results,omitempty"`
	Combined *domain.AnalysisResult   `json:"combined,omitempty"`
	Errors   []error                  `json:"-"`
}

// Final flattens the batch into its final results, in input order.
func (o *BatchOutcome) Final() []*domain.AnalysisResult {
	if o.Combined != nil {
		return []*domain.AnalysisResult{o.Combined}
	}
	if len(o.Results) > 0 {
		return o.Results
	}
	var out []*domain.AnalysisResult
	for _, f := range o.Files {
		if f != nil {
			out = append(out, f.Final()...)
		}
	}
	return out
}

// ChunkInfo describes one chunk of a split preview.
type ChunkInfo struct {
	Index           int    `json:"index"`
	Chars           int    `json:"chars"`
	EstimatedTokens int    `json:"estimated_tokens"`
	Preview         string `json:"preview"`
}

// SplitPreview reports how a file would be chunked.
type SplitPreview struct {
	File       string             `json:"file"`
	Method     domain.SplitMethod `json:"method"`
	ChunkSize  int                `json:"chunk_size"`
	ChunkCount int                `json:"chunk_count"`
	Chunks     []ChunkInfo        `json:"chunks"`
}

// AnalysisService defines the analysis pipeline contract.
type AnalysisService interface {
	AnalyzeText(ctx context.Context, input AnalyzeTextInput) (*domain.AnalysisResult, error)
	AnalyzeFile(ctx context.Context, input AnalyzeFileInput) (*FileOutcome, error)
	AnalyzeBatch(ctx context.Context, input BatchInput) (*BatchOutcome, error)
	PreviewSplit(ctx context.Context, path string, opts domain.SplitOptions) (*SplitPreview, error)
	NeedsSplit(path string) (bool, error)
}

type analysisService struct {
	registry  *processor.Registry
	analyzers *analyzer.Set
	prompts   *prompt.Resolver
	combiner  *combiner.Combiner
	history   port.HistoryRepository
	cfg       *config.ProcessingConfig
	cache     *lru.Cache[string, *domain.ExtractedDocument]
	log       *zap.Logger
}

// NewAnalysisService creates a new AnalysisService implementation. history
// may be nil, in which case results are not persisted.
func NewAnalysisService(
	registry *processor.Registry,
	analyzers *analyzer.Set,
	prompts *prompt.Resolver,
	comb *combiner.Combiner,
	history port.HistoryRepository,
	cfg *config.ProcessingConfig,
	log *zap.Logger,
) AnalysisService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &analysisService{
		registry:  registry,
		analyzers: analyzers,
		prompts:   prompts,
		combiner:  comb,
		history:   history,
		cfg:       cfg,
		log:       log,
	}
	if cfg.EnableCache && cfg.CacheSize > 0 {
		// only fails for a non-positive size
		s.cache, _ = lru.New[string, *domain.ExtractedDocument](cfg.CacheSize)
	}
	return s
}

func (s *analysisService) AnalyzeText(ctx context.Context, input AnalyzeTextInput) (*domain.AnalysisResult, error) {
	name := input.FileName
	if name == "" {
		name = textInputName
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, &domain.StageError{File: name, Stage: domain.StageAnalyze, Err: domain.ErrEmptyText}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.StageError{File: name, Stage: domain.StageAnalyze, Err: cancelled(ctx)}
	}

	job, err := s.prepare(input.AnalysisType, input.Provider)
	if err != nil {
		return nil, &domain.StageError{File: name, Stage: domain.StageAnalyze, Err: err}
	}

	doc := &domain.ExtractedDocument{
		FileName: name,
		Format:   "Text",
		Text:     input.Text,
		Metadata: map[string]any{"char_count": len([]rune(input.Text))},
	}
	r, err := s.analyzeUnit(ctx, job, doc, input.Text, doc.Metadata)
	if err != nil {
		return nil, &domain.StageError{File: name, Stage: domain.StageAnalyze, Err: err}
	}
	s.saveHistory(ctx, r)
	return r, nil
}

func (s *analysisService) AnalyzeFile(ctx context.Context, input AnalyzeFileInput) (*FileOutcome, error) {
	out, err := s.analyzeFile(ctx, input)
	if err == nil {
		s.saveHistory(ctx, out.Final()...)
	}
	return out, err
}

// analyzeFile runs one file through the pipeline without touching history.
func (s *analysisService) analyzeFile(ctx context.Context, input AnalyzeFileInput) (*FileOutcome, error) {
	name := input.File.name()
	out := &FileOutcome{File: name, State: domain.FileStatePending}
	t := s.track(out, input.Progress)

	if ctx.Err() != nil {
		return out, t.fail(domain.StageExtract, 0, cancelled(ctx))
	}

	t.to(domain.FileStateExtracting)
	doc, proc, err := s.extract(ctx, input.File)
	if err != nil {
		return out, t.fail(domain.StageExtract, 0, err)
	}

	job, err := s.prepare(input.AnalysisType, input.Provider)
	if err != nil {
		return out, t.fail(domain.StageAnalyze, 0, err)
	}

	if input.Split == nil {
		t.to(domain.FileStateAnalyzing)
		r, err := s.analyzeUnit(ctx, job, doc, doc.Text, doc.Metadata)
		if err != nil {
			return out, t.fail(domain.StageAnalyze, 0, err)
		}
		out.Results = []*domain.AnalysisResult{r}
		t.to(domain.FileStateDone)
		return out, nil
	}

	t.to(domain.FileStateSplitting)
	chunks, err := proc.Split(ctx, input.File.Path, *input.Split)
	if err != nil {
		return out, t.fail(domain.StageSplit, 0, err)
	}

	t.to(domain.FileStateAnalyzing)
	results, chunkErrs, err := s.analyzeChunks(ctx, job, doc, chunks, input.Mode, t)
	out.Results, out.Errors = results, chunkErrs
	if err != nil {
		return out, err
	}
	if len(results) == 0 {
		return out, t.fail(domain.StageAnalyze, 0,
			fmt.Errorf("all %d chunks failed: %w", len(chunks), errors.Join(chunkErrs...)))
	}

	if input.Strategy != "" {
		t.to(domain.FileStateAggregating)
		combined, err := s.combiner.Combine(results, input.Strategy)
		if err != nil {
			return out, t.fail(domain.StageCombine, 0, err)
		}
		if len(results) > 1 {
			combined.Metadata["document"] = doc.Metadata
		}
		out.Combined = combined
	}
	t.to(domain.FileStateDone)
	return out, nil
}

// analyzeChunks analyses chunks in order. In separate mode a failed chunk is
// recorded and skipped; in combine mode the first failure is returned.
// Cancellation always stops the loop.
func (s *analysisService) analyzeChunks(
	ctx context.Context,
	job *analysisJob,
	doc *domain.ExtractedDocument,
	chunks []string,
	mode domain.BatchMode,
	t *tracker,
) ([]*domain.AnalysisResult, []error, error) {
	var (
		results []*domain.AnalysisResult
		errs    []error
	)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			return results, errs, t.fail(domain.StageAnalyze, i+1, cancelled(ctx))
		}
		t.chunk(i+1, len(chunks))

		meta := map[string]any{
			"chunk_chars":      len([]rune(chunk)),
			"estimated_tokens": processor.EstimateTokens(chunk),
		}
		r, err := s.analyzeUnit(ctx, job, doc, chunk, meta)
		if err != nil {
			if mode == domain.BatchModeCombine {
				return results, errs, t.fail(domain.StageAnalyze, i+1, err)
			}
			s.log.Warn("analysisService.analyzeChunks: chunk failed, skipping",
				zap.String("file", doc.FileName),
				zap.Int("chunk", i+1),
				zap.Int("chunks", len(chunks)),
				zap.Error(err),
			)
			errs = append(errs, &domain.StageError{File: doc.FileName, Stage: domain.StageAnalyze, Chunk: i + 1, Err: err})
			continue
		}
		r.ChunkIndex, r.ChunkCount = i+1, len(chunks)
		results = append(results, r)
	}
	return results, errs, nil
}

func (s *analysisService) AnalyzeBatch(ctx context.Context, input BatchInput) (*BatchOutcome, error) {
	if input.Mode == domain.BatchModeCombine {
		out, err := s.analyzeJoined(ctx, input)
		if err == nil {
			s.saveHistory(ctx, out.Final()...)
		}
		return out, err
	}

	out := &BatchOutcome{Files: make([]*FileOutcome, len(input.Files))}
	fileErrs := make([]error, len(input.Files))

	run := func(i int) {
		f := input.Files[i]
		fo, err := s.analyzeFile(ctx, AnalyzeFileInput{
			File:         f,
			AnalysisType: input.AnalysisType,
			Provider:     input.Provider,
			Mode:         domain.BatchModeSeparate,
			Split:        input.Split,
			Strategy:     input.Strategy,
			Progress:     input.Progress,
		})
		out.Files[i] = fo
		if err != nil {
			s.log.Warn("analysisService.AnalyzeBatch: file failed",
				zap.String("file", f.name()),
				zap.Error(err),
			)
			fileErrs[i] = err
		}
	}

	if s.cfg.Parallelism > 1 && len(input.Files) > 1 {
		var g errgroup.Group
		g.SetLimit(s.cfg.Parallelism)
		for i := range input.Files {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range input.Files {
			if ctx.Err() != nil {
				break
			}
			run(i)
		}
	}

	for i, fo := range out.Files {
		if fo == nil {
			// never started because the batch was cancelled
			out.Files[i] = &FileOutcome{File: input.Files[i].name(), State: domain.FileStateFailed}
			fileErrs[i] = &domain.StageError{File: input.Files[i].name(), Stage: domain.StageExtract, Err: cancelled(ctx)}
		}
		if fileErrs[i] != nil {
			out.Errors = append(out.Errors, fileErrs[i])
		} else {
			out.Errors = append(out.Errors, out.Files[i].Errors...)
			s.saveHistory(ctx, out.Files[i].Final()...)
		}
	}

	if ctx.Err() != nil {
		return out, cancelled(ctx)
	}
	return out, nil
}

// analyzeJoined implements combine mode: every file is extracted, the texts
// are joined and analysed as one document. Any failure aborts the batch.
func (s *analysisService) analyzeJoined(ctx context.Context, input BatchInput) (*BatchOutcome, error) {
	if len(input.Files) == 0 {
		return nil, domain.ErrEmptyCombineInput
	}

	names := make([]string, 0, len(input.Files))
	metas := make([]map[string]any, 0, len(input.Files))
	formats := make(map[string]bool)
	var joined strings.Builder
	for _, f := range input.Files {
		name := f.name()
		fo := &FileOutcome{File: name, State: domain.FileStatePending}
		t := s.track(fo, input.Progress)
		if ctx.Err() != nil {
			return nil, t.fail(domain.StageExtract, 0, cancelled(ctx))
		}
		t.to(domain.FileStateExtracting)
		doc, _, err := s.extract(ctx, f)
		if err != nil {
			return nil, t.fail(domain.StageExtract, 0, err)
		}
		fmt.Fprintf(&joined, FileSeparator, name)
		joined.WriteString(doc.Text)
		names = append(names, name)
		metas = append(metas, doc.Metadata)
		formats[doc.Format] = true
	}

	format := "mixed"
	if len(formats) == 1 {
		for f := range formats {
			format = f
		}
	}
	doc := &domain.ExtractedDocument{
		FileName: strings.Join(names, ", "),
		Format:   format,
		Text:     strings.TrimPrefix(joined.String(), "\n\n"),
		Metadata: combiner.MergeMetadata(metas...),
	}
	doc.Metadata["source_files"] = names

	job, err := s.prepare(input.AnalysisType, input.Provider)
	if err != nil {
		return nil, &domain.StageError{File: doc.FileName, Stage: domain.StageAnalyze, Err: err}
	}

	out := &BatchOutcome{}
	t := s.track(&FileOutcome{File: doc.FileName, State: domain.FileStateExtracting}, input.Progress)

	if input.Split == nil {
		t.to(domain.FileStateAnalyzing)
		r, err := s.analyzeUnit(ctx, job, doc, doc.Text, doc.Metadata)
		if err != nil {
			return nil, t.fail(domain.StageAnalyze, 0, err)
		}
		t.to(domain.FileStateDone)
		out.Results = []*domain.AnalysisResult{r}
		return out, nil
	}

	t.to(domain.FileStateSplitting)
	chunks, err := s.splitText(ctx, doc.Text, *input.Split)
	if err != nil {
		return nil, t.fail(domain.StageSplit, 0, err)
	}
	t.to(domain.FileStateAnalyzing)
	results, _, err := s.analyzeChunks(ctx, job, doc, chunks, domain.BatchModeCombine, t)
	if err != nil {
		return nil, err
	}
	out.Results = results
	if input.Strategy != "" {
		t.to(domain.FileStateAggregating)
		combined, err := s.combiner.Combine(results, input.Strategy)
		if err != nil {
			return nil, t.fail(domain.StageCombine, 0, err)
		}
		if len(results) > 1 {
			combined.Metadata["document"] = doc.Metadata
		}
		out.Combined = combined
	}
	t.to(domain.FileStateDone)
	return out, nil
}

// splitText chunks free text through the plain-text processor, which splits
// from a path.
func (s *analysisService) splitText(ctx context.Context, text string, opts domain.SplitOptions) ([]string, error) {
	proc, err := s.registry.For("joined.txt")
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp("", "docanalyst-joined-*.txt")
	if err != nil {
		return nil, fmt.Errorf("staging joined text: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("staging joined text: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("staging joined text: %w", err)
	}
	return proc.Split(ctx, tmp.Name(), opts)
}

func (s *analysisService) PreviewSplit(ctx context.Context, path string, opts domain.SplitOptions) (*SplitPreview, error) {
	name := filepath.Base(path)
	proc, err := s.registry.For(name)
	if err != nil {
		return nil, &domain.StageError{File: name, Stage: domain.StageSplit, Err: err}
	}
	chunks, err := proc.Split(ctx, path, opts)
	if err != nil {
		return nil, &domain.StageError{File: name, Stage: domain.StageSplit, Err: err}
	}

	preview := &SplitPreview{
		File:       name,
		Method:     opts.Method,
		ChunkSize:  opts.ChunkSize,
		ChunkCount: len(chunks),
		Chunks:     make([]ChunkInfo, len(chunks)),
	}
	for i, c := range chunks {
		preview.Chunks[i] = ChunkInfo{
			Index:           i + 1,
			Chars:           len([]rune(c)),
			EstimatedTokens: processor.EstimateTokens(c),
			Preview:         domain.Truncate(c, 100),
		}
	}
	return preview, nil
}

func (s *analysisService) NeedsSplit(path string) (bool, error) {
	if !s.cfg.AutoSplit {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	return info.Size() >= s.cfg.MinSplitSizeBytes(), nil
}

// analysisJob is the resolved prompt and backend for one request.
type analysisJob struct {
	analysisType string
	prompt       string
	analyzer     port.Analyzer
	provider     string
}

func (s *analysisService) prepare(analysisType, provider string) (*analysisJob, error) {
	tmpl, err := s.prompts.Prompt(analysisType)
	if err != nil {
		return nil, err
	}
	a, name, err := s.analyzers.Get(provider)
	if err != nil {
		return nil, err
	}
	if analysisType == "" {
		analysisType = "Analysis"
	}
	return &analysisJob{analysisType: analysisType, prompt: tmpl, analyzer: a, provider: name}, nil
}

// analyzeUnit sends one text unit to the backend. The call is detached from
// ctx cancellation and bounded by the configured analyze timeout.
func (s *analysisService) analyzeUnit(
	ctx context.Context,
	job *analysisJob,
	doc *domain.ExtractedDocument,
	text string,
	meta map[string]any,
) (*domain.AnalysisResult, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.analyzeTimeout())
	defer cancel()

	start := time.Now()
	resp, err := job.analyzer.Analyze(callCtx, port.AnalyzeInput{Text: text, Prompt: job.prompt})
	if err != nil {
		return nil, &domain.AIServiceError{Provider: job.provider, Err: err}
	}

	provider := resp.Provider
	if provider == "" {
		provider = job.provider
	}
	s.log.Info("analysisService.analyzeUnit: analysis complete",
		zap.String("file", doc.FileName),
		zap.String("provider", provider),
		zap.String("model", resp.Model),
		zap.Int("input_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &domain.AnalysisResult{
		ID:           newID(),
		FileName:     doc.FileName,
		FileType:     doc.Format,
		AnalysisType: job.analysisType,
		Provider:     provider,
		Model:        resp.Model,
		OriginalText: text,
		AnalyzedText: resp.Text,
		Metadata:     cloneMap(meta),
		Timestamp:    time.Now(),
	}, nil
}

func (s *analysisService) analyzeTimeout() time.Duration {
	if s.cfg.AnalyzeTimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(s.cfg.AnalyzeTimeoutSecs) * time.Second
}

// extract reads the file, consulting the content-hash cache first.
func (s *analysisService) extract(ctx context.Context, f FileRef) (*domain.ExtractedDocument, processor.Processor, error) {
	name := f.name()
	proc, err := s.registry.For(name)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", name, err)
	}

	key := cacheKey(data, processor.Ext(name))
	if s.cache != nil {
		if doc, ok := s.cache.Get(key); ok {
			s.log.Debug("analysisService.extract: cache hit", zap.String("file", name))
			cp := *doc
			cp.FileName = name
			cp.Metadata = cloneMap(doc.Metadata)
			return &cp, proc, nil
		}
	}

	text, err := proc.ExtractText(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	meta, err := proc.Metadata(ctx, bytes.NewReader(data))
	if err != nil {
		s.log.Warn("analysisService.extract: metadata unavailable",
			zap.String("file", name),
			zap.Error(err),
		)
		meta = map[string]any{}
	}

	doc := &domain.ExtractedDocument{FileName: name, Format: proc.Format(), Text: text, Metadata: meta}
	if s.cache != nil {
		s.cache.Add(key, doc)
		cp := *doc
		cp.Metadata = cloneMap(meta)
		return &cp, proc, nil
	}
	return doc, proc, nil
}

func (s *analysisService) saveHistory(ctx context.Context, results ...*domain.AnalysisResult) {
	if s.history == nil {
		return
	}
	saveCtx := context.WithoutCancel(ctx)
	for _, r := range results {
		if err := s.history.Save(saveCtx, domain.NewHistoryEntry(r)); err != nil {
			s.log.Error("analysisService.saveHistory: failed to save result",
				zap.String("file", r.FileName),
				zap.String("result_id", r.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// tracker drives the per-file state machine and reports progress.
type tracker struct {
	out      *FileOutcome
	progress ProgressFunc
	log      *zap.Logger
}

func (s *analysisService) track(out *FileOutcome, progress ProgressFunc) *tracker {
	t := &tracker{out: out, progress: progress, log: s.log}
	t.emit(0, 0)
	return t
}

func (t *tracker) to(next domain.FileState) {
	if !t.out.State.CanTransitionTo(next) {
		t.log.DPanic("analysisService: illegal state transition",
			zap.String("file", t.out.File),
			zap.String("from", string(t.out.State)),
			zap.String("to", string(next)),
		)
		return
	}
	t.out.State = next
	t.emit(0, 0)
}

func (t *tracker) chunk(i, n int) {
	t.emit(i, n)
}

// fail moves to FAILED and returns err wrapped as a StageError.
func (t *tracker) fail(stage domain.Stage, chunk int, err error) error {
	se, ok := err.(*domain.StageError)
	if !ok {
		se = &domain.StageError{File: t.out.File, Stage: stage, Chunk: chunk, Err: err}
	}
	if !t.out.State.IsTerminal() {
		t.out.State = domain.FileStateFailed
		t.emit(0, 0)
	}
	return se
}

func (t *tracker) emit(chunk, chunks int) {
	if t.progress != nil {
		t.progress(Progress{File: t.out.File, State: t.out.State, Chunk: chunk, Chunks: chunks})
	}
}

// cancelled reports an observed cancellation as ErrCancelled wrapping the
// context's error.
func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
}

func cacheKey(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + "." + ext
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
