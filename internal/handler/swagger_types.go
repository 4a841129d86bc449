package handler

import (
	"docanalyst/internal/domain"
	"docanalyst/internal/service"
)

// Request and response types shared by the handlers and the swag annotations.

// --- Request Types ---

// AnalyzeTextRequest represents the analyze text request body.
type AnalyzeTextRequest struct {
	Text         string `json:"text" example:"Quarterly revenue grew 12% while costs stayed flat."`
	FileName     string `json:"file_name" example:"notes.txt"`
	AnalysisType string `json:"analysis_type" example:"Summary"`
	Provider     string `json:"provider" example:"openai"`
}

// CombineRequest represents the combine history results request body.
type CombineRequest struct {
	IDs      []string `json:"ids" binding:"required,min=1" example:"0190a4c2-8f7e-7b3a-9c41-2f6d8e0a1b2c"`
	Strategy string   `json:"strategy" example:"sequential"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"history store not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"entry deleted"`
}

// AnalysisResponse is the outcome of an analyses request. Results holds the
// final results in input order and Files the per-file detail. Errors carries
// one message per failed file or chunk.
type AnalysisResponse struct {
	Results []*domain.AnalysisResult `json:"results"`
	Files   []*service.FileOutcome   `json:"files,omitempty"`
	Errors  []string                 `json:"errors,omitempty"`
}

func newAnalysisResponse(out *service.BatchOutcome) *AnalysisResponse {
	resp := &AnalysisResponse{
		Results: out.Final(),
		Files:   out.Files,
	}
	for _, err := range out.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
