package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docanalyst/internal/domain"
	"docanalyst/internal/export"
	"docanalyst/internal/logging"
	"docanalyst/internal/service"
)

// HistoryHandler handles the analysis history endpoints.
type HistoryHandler struct {
	historyService  service.HistoryService
	exportService   service.ExportService
	defaultStrategy domain.CombineStrategy
	log             *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler. defaultStrategy is used by
// Combine when the request names none.
func NewHistoryHandler(
	historyService service.HistoryService,
	exportService service.ExportService,
	defaultStrategy domain.CombineStrategy,
	log *zap.Logger,
) *HistoryHandler {
	log = logging.OrNop(log)
	return &HistoryHandler{
		historyService:  historyService,
		exportService:   exportService,
		defaultStrategy: defaultStrategy,
		log:             log,
	}
}

// List handles GET /api/v1/history
// @Summary List history entries
// @Description Newest first, optionally filtered by file type, analysis type and provider
// @Tags history
// @Produce json
// @Param file_type query string false "File type, e.g. PDF"
// @Param analysis_type query string false "Analysis type"
// @Param provider query string false "AI provider"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.HistoryEntry,meta=PagMeta}
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c, service.DefaultHistoryLimit)
	filter := historyFilter(c)
	filter.Offset, filter.Limit = offset, limit

	entries, total, err := h.historyService.List(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}
	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ExportCSV handles GET /api/v1/history/export.csv
// @Summary Download history as CSV
// @Tags history
// @Produce text/csv
// @Param file_type query string false "File type"
// @Param analysis_type query string false "Analysis type"
// @Param provider query string false "AI provider"
// @Success 200 {file} file
// @Router /history/export.csv [get]
func (h *HistoryHandler) ExportCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.historyService.WriteCSV(c.Request.Context(), &buf, historyFilter(c)); err != nil {
		HandleError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", attachment(export.BuildFilename("analysis_history")))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GetByID handles GET /api/v1/history/:id
// @Summary Get a history entry
// @Tags history
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} Response{data=domain.HistoryEntry}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /history/{id} [get]
func (h *HistoryHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.historyService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, entry)
}

// Delete handles DELETE /api/v1/history/:id
// @Summary Delete a history entry
// @Tags history
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 404 {object} ErrorResponseBody
// @Router /history/{id} [delete]
func (h *HistoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.historyService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "entry deleted"})
}

// Download handles GET /api/v1/history/:id/export
// @Summary Download a result in an export format
// @Tags history
// @Produce octet-stream
// @Param id path string true "Entry ID"
// @Param format query string false "txt, md, json, docx or pdf" default(txt)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /history/{id}/export [get]
func (h *HistoryHandler) Download(c *gin.Context) {
	id, format, ok := h.exportParams(c)
	if !ok {
		return
	}
	rendered, err := h.exportService.Render(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", attachment(rendered.FileName))
	c.Data(http.StatusOK, rendered.ContentType, rendered.Data)
}

// Store handles POST /api/v1/history/:id/export
// @Summary Store a result in the export sink
// @Description Renders the result and writes it to the configured sink (local directory or S3)
// @Tags history
// @Produce json
// @Param id path string true "Entry ID"
// @Param format query string false "txt, md, json, docx or pdf" default(txt)
// @Success 201 {object} Response{data=service.StoredExport}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /history/{id}/export [post]
func (h *HistoryHandler) Store(c *gin.Context) {
	id, format, ok := h.exportParams(c)
	if !ok {
		return
	}
	stored, err := h.exportService.Store(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondCreated(c, stored)
}

// Unstore handles DELETE /api/v1/history/:id/export
// @Summary Remove a stored export from the sink
// @Tags history
// @Produce json
// @Param id path string true "Entry ID"
// @Param format query string false "txt, md, json, docx or pdf" default(txt)
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 404 {object} ErrorResponseBody
// @Router /history/{id}/export [delete]
func (h *HistoryHandler) Unstore(c *gin.Context) {
	id, format, ok := h.exportParams(c)
	if !ok {
		return
	}
	if err := h.exportService.Unstore(c.Request.Context(), id, format); err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "export removed"})
}

// Combine handles POST /api/v1/combine
// @Summary Combine stored results
// @Description Merges history results in the given order and saves the combined result
// @Tags history
// @Accept json
// @Produce json
// @Param request body CombineRequest true "IDs and strategy"
// @Success 201 {object} Response{data=domain.AnalysisResult}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /combine [post]
func (h *HistoryHandler) Combine(c *gin.Context) {
	var req CombineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", fmt.Sprintf("invalid id %q", raw))
			return
		}
		ids = append(ids, id)
	}

	strategy := h.defaultStrategy
	if req.Strategy != "" {
		var err error
		if strategy, err = parseStrategy(req.Strategy); err != nil {
			HandleError(c, h.log, err)
			return
		}
	}

	combined, err := h.historyService.Combine(c.Request.Context(), ids, strategy)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}
	RespondCreated(c, combined)
}

func (h *HistoryHandler) exportParams(c *gin.Context) (uuid.UUID, domain.ExportFormat, bool) {
	id, ok := parseID(c)
	if !ok {
		return uuid.Nil, "", false
	}
	format, err := domain.ParseExportFormat(c.DefaultQuery("format", string(domain.ExportTXT)))
	if err != nil {
		HandleError(c, h.log, err)
		return uuid.Nil, "", false
	}
	return id, format, true
}

func historyFilter(c *gin.Context) domain.HistoryFilter {
	return domain.HistoryFilter{
		FileType:     c.Query("file_type"),
		AnalysisType: c.Query("analysis_type"),
		Provider:     c.Query("provider"),
	}
}

// parseID reads the :id path param. It writes a 400 response and returns
// false when the value is not a UUID.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid entry ID")
		return uuid.Nil, false
	}
	return id, true
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
