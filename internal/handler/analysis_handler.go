package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docanalyst/internal/config"
	"docanalyst/internal/domain"
	"docanalyst/internal/logging"
	"docanalyst/internal/service"
)

// MaxBatchFiles caps the number of files accepted by one analyses request.
const MaxBatchFiles = 20

// AnalysisHandler handles the analysis endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
	cfg             *config.ProcessingConfig
	log             *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService, cfg *config.ProcessingConfig, log *zap.Logger) *AnalysisHandler {
	log = logging.OrNop(log)
	return &AnalysisHandler{analysisService: analysisService, cfg: cfg, log: log}
}

// Analyze handles POST /api/v1/analyses
// @Summary Analyze files
// @Description Upload one or more files and analyze them. In separate mode each file is analyzed on its own; in combine mode the texts are joined first.
// @Tags analyses
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to analyze"
// @Param analysis_type formData string false "Analysis type name"
// @Param provider formData string false "AI provider"
// @Param mode formData string false "separate or combine" default(separate)
// @Param strategy formData string false "sequential or summarize"
// @Param split_method formData string false "page or token"
// @Param chunk_size formData int false "Pages or tokens per chunk"
// @Success 200 {object} Response{data=AnalysisResponse}
// @Failure 400 {object} ErrorResponseBody
// @Failure 413 {object} ErrorResponseBody
// @Failure 415 {object} ErrorResponseBody
// @Failure 422 {object} ErrorResponseBody
// @Failure 429 {object} ErrorResponseBody
// @Failure 502 {object} ErrorResponseBody
// @Router /analyses [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes()*MaxBatchFiles)
	form, err := c.MultipartForm()
	if err != nil {
		h.respondFormError(c, err)
		return
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["files"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "files field is required")
		return
	}
	if len(headers) > MaxBatchFiles {
		RespondError(c, http.StatusBadRequest, "TOO_MANY_FILES", fmt.Sprintf("at most %d files per request", MaxBatchFiles))
		return
	}

	mode, ok := parseMode(c.PostForm("mode"))
	if !ok {
		RespondError(c, http.StatusBadRequest, "INVALID_MODE", "mode must be separate or combine")
		return
	}
	strategy, err := parseStrategy(c.PostForm("strategy"))
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	split, err := h.splitOptions(c, false)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	dir, err := os.MkdirTemp("", "docanalyst-upload-*")
	if err != nil {
		HandleError(c, h.log, fmt.Errorf("creating upload dir: %w", err))
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	files := make([]service.FileRef, 0, len(headers))
	for i, fh := range headers {
		ref, err := h.stage(c, dir, i, fh)
		if err != nil {
			HandleError(c, h.log, err)
			return
		}
		files = append(files, ref)
	}

	if split == nil && h.cfg.AutoSplit {
		split, strategy = h.autoSplit(files, strategy)
	}

	out, err := h.analysisService.AnalyzeBatch(c.Request.Context(), service.BatchInput{
		Files:        files,
		AnalysisType: c.PostForm("analysis_type"),
		Provider:     c.PostForm("provider"),
		Mode:         mode,
		Split:        split,
		Strategy:     strategy,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	resp := newAnalysisResponse(out)
	if len(resp.Results) == 0 && len(out.Errors) > 0 {
		HandleError(c, h.log, out.Errors[0])
		return
	}
	RespondOK(c, resp)
}

// AnalyzeText handles POST /api/v1/analyses/text
// @Summary Analyze raw text
// @Tags analyses
// @Accept json
// @Produce json
// @Param request body AnalyzeTextRequest true "Text to analyze"
// @Success 200 {object} Response{data=domain.AnalysisResult}
// @Failure 400 {object} ErrorResponseBody
// @Failure 429 {object} ErrorResponseBody
// @Failure 502 {object} ErrorResponseBody
// @Router /analyses/text [post]
func (h *AnalysisHandler) AnalyzeText(c *gin.Context) {
	var req AnalyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.analysisService.AnalyzeText(c.Request.Context(), service.AnalyzeTextInput{
		Text:         req.Text,
		FileName:     req.FileName,
		AnalysisType: req.AnalysisType,
		Provider:     req.Provider,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, result)
}

// SplitPreview handles POST /api/v1/analyses/split-preview
// @Summary Preview how a file would be split
// @Tags analyses
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to split"
// @Param split_method formData string false "page or token"
// @Param chunk_size formData int false "Pages or tokens per chunk"
// @Success 200 {object} Response{data=service.SplitPreview}
// @Failure 400 {object} ErrorResponseBody
// @Failure 415 {object} ErrorResponseBody
// @Failure 422 {object} ErrorResponseBody
// @Router /analyses/split-preview [post]
func (h *AnalysisHandler) SplitPreview(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes())
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, h.log, domain.ErrFileTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	if c.Request.MultipartForm != nil {
		defer func() { _ = c.Request.MultipartForm.RemoveAll() }()
	}

	opts, err := h.splitOptions(c, true)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	dir, err := os.MkdirTemp("", "docanalyst-preview-*")
	if err != nil {
		HandleError(c, h.log, fmt.Errorf("creating upload dir: %w", err))
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	ref, err := h.stage(c, dir, 0, fh)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	preview, err := h.analysisService.PreviewSplit(c.Request.Context(), ref.Path, *opts)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, preview)
}

func (h *AnalysisHandler) respondFormError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		HandleError(c, h.log, domain.ErrFileTooLarge)
		return
	}
	RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "expected a multipart form")
}

// stage copies an uploaded file into its own subdirectory of dir, keeping the
// original base name so the extension and display name survive.
func (h *AnalysisHandler) stage(c *gin.Context, dir string, i int, fh *multipart.FileHeader) (service.FileRef, error) {
	if fh.Size > h.maxUploadBytes() {
		return service.FileRef{}, fmt.Errorf("%s: %w", fh.Filename, domain.ErrFileTooLarge)
	}
	name := filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	sub := filepath.Join(dir, strconv.Itoa(i))
	if err := os.MkdirAll(sub, 0o700); err != nil {
		return service.FileRef{}, fmt.Errorf("staging %s: %w", name, err)
	}
	dest := filepath.Join(sub, name)
	if err := c.SaveUploadedFile(fh, dest); err != nil {
		return service.FileRef{}, fmt.Errorf("staging %s: %w", name, err)
	}
	return service.FileRef{Path: dest, Name: name}, nil
}

// splitOptions reads split_method and chunk_size from the form. Without
// either field it returns nil unless always is set, in which case the
// configured defaults apply.
func (h *AnalysisHandler) splitOptions(c *gin.Context, always bool) (*domain.SplitOptions, error) {
	method := c.PostForm("split_method")
	size := c.PostForm("chunk_size")
	if method == "" && size == "" && !always {
		return nil, nil
	}

	opts := &domain.SplitOptions{
		Method:    domain.ParseSplitMethod(h.cfg.SplitMethod),
		ChunkSize: h.cfg.ChunkSize,
	}
	if method != "" {
		opts.Method = domain.ParseSplitMethod(method)
	}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidChunkSize, size)
		}
		opts.ChunkSize = n
	}
	if opts.ChunkSize < 1 {
		return nil, domain.ErrInvalidChunkSize
	}
	return opts, nil
}

// autoSplit applies the configured split when any staged file crosses the
// size threshold. A request without a strategy then gets the configured one.
func (h *AnalysisHandler) autoSplit(files []service.FileRef, strategy domain.CombineStrategy) (*domain.SplitOptions, domain.CombineStrategy) {
	for _, f := range files {
		need, err := h.analysisService.NeedsSplit(f.Path)
		if err != nil {
			h.log.Warn("analysisHandler.autoSplit: size check failed", zap.String("file", f.Name), zap.Error(err))
			continue
		}
		if need {
			if strategy == "" {
				strategy = domain.CombineStrategy(h.cfg.CombineStrategy)
			}
			return &domain.SplitOptions{
				Method:    domain.ParseSplitMethod(h.cfg.SplitMethod),
				ChunkSize: h.cfg.ChunkSize,
			}, strategy
		}
	}
	return nil, strategy
}

func (h *AnalysisHandler) maxUploadBytes() int64 {
	if h.cfg.MaxUploadSizeMB <= 0 {
		return 50 << 20
	}
	return h.cfg.MaxUploadSizeMB << 20
}

func parseMode(s string) (domain.BatchMode, bool) {
	switch domain.BatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", domain.BatchModeSeparate:
		return domain.BatchModeSeparate, true
	case domain.BatchModeCombine:
		return domain.BatchModeCombine, true
	default:
		return "", false
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
