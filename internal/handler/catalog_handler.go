package handler

import (
	"github.com/gin-gonic/gin"

	"docanalyst/internal/combiner"
	"docanalyst/internal/domain"
)

// ExtensionLister lists the file extensions the processors accept.
type ExtensionLister interface {
	Extensions() []string
}

// TypeLister lists the known analysis types.
type TypeLister interface {
	Types() []domain.AnalysisType
}

// CatalogHandler serves the static catalogues clients use to build requests.
type CatalogHandler struct {
	formats   ExtensionLister
	types     TypeLister
	providers []string
}

// NewCatalogHandler creates a new CatalogHandler. providers lists the
// configured AI backends.
func NewCatalogHandler(formats ExtensionLister, types TypeLister, providers []string) *CatalogHandler {
	return &CatalogHandler{formats: formats, types: types, providers: providers}
}

// Formats handles GET /api/v1/formats
// @Summary List supported formats
// @Description Input file extensions, export formats, split methods and combine strategies
// @Tags catalog
// @Produce json
// @Success 200 {object} Response{data=map[string]interface{}}
// @Router /formats [get]
func (h *CatalogHandler) Formats(c *gin.Context) {
	RespondOK(c, gin.H{
		"extensions":         h.formats.Extensions(),
		"export_formats":     domain.ExportFormats,
		"split_methods":      []domain.SplitMethod{domain.SplitMethodPage, domain.SplitMethodToken},
		"combine_strategies": combiner.Strategies(),
		"providers":          h.providers,
	})
}

// AnalysisTypes handles GET /api/v1/analysis-types
// @Summary List analysis types
// @Tags catalog
// @Produce json
// @Success 200 {object} Response{data=[]domain.AnalysisType}
// @Router /analysis-types [get]
func (h *CatalogHandler) AnalysisTypes(c *gin.Context) {
	RespondOK(c, h.types.Types())
}
