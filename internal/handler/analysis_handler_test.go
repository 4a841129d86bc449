package handler_test

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docanalyst/internal/analyzer"
	"docanalyst/internal/config"
	"docanalyst/internal/domain"
	"docanalyst/internal/handler"
	"docanalyst/internal/service"
	"docanalyst/mocks"
)

func testProcessingConfig() *config.ProcessingConfig {
	return &config.ProcessingConfig{
		ChunkSize:       3,
		SplitMethod:     "page",
		CombineStrategy: "sequential",
		MaxUploadSizeMB: 1,
	}
}

func newAnalysisRouter(svc service.AnalysisService, cfg *config.ProcessingConfig) *gin.Engine {
	h := handler.NewAnalysisHandler(svc, cfg, nil)
	r := gin.New()
	r.POST("/analyses", h.Analyze)
	r.POST("/analyses/text", h.AnalyzeText)
	r.POST("/analyses/split-preview", h.SplitPreview)
	return r
}

func postForm(body *bytes.Buffer, contentType, path string) *http.Request {
	req, _ := http.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func TestAnalysisHandler_Analyze_Success(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	var staged []string
	svc.On("AnalyzeBatch", mock.Anything, mock.MatchedBy(func(in service.BatchInput) bool {
		if len(in.Files) != 2 || in.Mode != domain.BatchModeSeparate || in.Split != nil {
			return false
		}
		for _, f := range in.Files {
			data, err := os.ReadFile(f.Path)
			if err != nil || len(data) == 0 {
				return false
			}
			staged = append(staged, f.Path)
		}
		return in.Files[0].Name == "notes.txt" && in.Files[1].Name == "data.csv" &&
			in.AnalysisType == "Summary" && in.Provider == "claude"
	})).Return(&service.BatchOutcome{
		Files: []*service.FileOutcome{
			{File: "notes.txt", State: domain.FileStateDone, Results: []*domain.AnalysisResult{{FileName: "notes.txt", AnalyzedText: "a"}}},
			{File: "data.csv", State: domain.FileStateDone, Results: []*domain.AnalysisResult{{FileName: "data.csv", AnalyzedText: "b"}}},
		},
	}, nil)

	body, ct := multipartBody(t, "files",
		[]upload{{"notes.txt", []byte("hello")}, {"data.csv", []byte("a,b\n1,2\n")}},
		map[string]string{"analysis_type": "Summary", "provider": "claude"})
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Len(t, data["results"], 2)
	assert.Nil(t, data["errors"])

	assert.NotEmpty(t, staged)
	for _, p := range staged {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "staged file %s should be removed", p)
	}
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_SplitFields(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	svc.On("AnalyzeBatch", mock.Anything, mock.MatchedBy(func(in service.BatchInput) bool {
		return in.Split != nil &&
			in.Split.Method == domain.SplitMethodToken &&
			in.Split.ChunkSize == 500 &&
			in.Strategy == domain.CombineSummarize &&
			in.Mode == domain.BatchModeCombine
	})).Return(&service.BatchOutcome{
		Results:  []*domain.AnalysisResult{{AnalyzedText: "part"}},
		Combined: &domain.AnalysisResult{AnalyzedText: "digest"},
	}, nil)

	body, ct := multipartBody(t, "files", []upload{{"a.txt", []byte("x")}},
		map[string]string{"split_method": "Token", "chunk_size": "500", "strategy": "summarize", "mode": "combine"})
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	results := data["results"].([]any)
	if assert.Len(t, results, 1) {
		assert.Equal(t, "digest", results[0].(map[string]any)["analyzed_text"])
	}
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_AutoSplit(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	cfg := testProcessingConfig()
	cfg.AutoSplit = true
	r := newAnalysisRouter(svc, cfg)

	svc.On("NeedsSplit", mock.Anything).Return(true, nil).Once()
	svc.On("AnalyzeBatch", mock.Anything, mock.MatchedBy(func(in service.BatchInput) bool {
		return in.Split != nil &&
			in.Split.Method == domain.SplitMethodPage &&
			in.Split.ChunkSize == 3 &&
			in.Strategy == domain.CombineSequential
	})).Return(&service.BatchOutcome{Files: []*service.FileOutcome{
		{File: "big.txt", Combined: &domain.AnalysisResult{AnalyzedText: "all"}},
	}}, nil)

	body, ct := multipartBody(t, "files", []upload{{"big.txt", []byte("page one\fpage two")}}, nil)
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_NoFiles(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	body, ct := multipartBody(t, "files", nil, map[string]string{"analysis_type": "Summary"})
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(t, w))
	svc.AssertNotCalled(t, "AnalyzeBatch", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Analyze_NotMultipart(t *testing.T) {
	r := newAnalysisRouter(new(mocks.MockAnalysisService), testProcessingConfig())

	req, _ := http.NewRequest(http.MethodPost, "/analyses", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestAnalysisHandler_Analyze_BadFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		code   string
	}{
		{"mode", map[string]string{"mode": "parallel"}, "INVALID_MODE"},
		{"strategy", map[string]string{"strategy": "vote"}, "UNKNOWN_COMBINE_STRATEGY"},
		{"chunk size not a number", map[string]string{"chunk_size": "ten"}, "INVALID_CHUNK_SIZE"},
		{"chunk size zero", map[string]string{"chunk_size": "0"}, "INVALID_CHUNK_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockAnalysisService)
			r := newAnalysisRouter(svc, testProcessingConfig())

			body, ct := multipartBody(t, "files", []upload{{"a.txt", []byte("x")}}, tt.fields)
			w := serve(r, postForm(body, ct, "/analyses"))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
			svc.AssertNotCalled(t, "AnalyzeBatch", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisHandler_Analyze_FileTooLarge(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	big := bytes.Repeat([]byte("a"), 1<<20+1)
	body, ct := multipartBody(t, "files", []upload{{"big.txt", big}}, nil)
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", errorCode(t, w))
}

func TestAnalysisHandler_Analyze_AllFilesFailed(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	fileErr := &domain.StageError{File: "scan.bmp", Stage: domain.StageExtract, Err: &domain.UnsupportedFormatError{Extension: "bmp"}}
	svc.On("AnalyzeBatch", mock.Anything, mock.Anything).Return(&service.BatchOutcome{
		Files:  []*service.FileOutcome{{File: "scan.bmp", State: domain.FileStateFailed}},
		Errors: []error{fileErr},
	}, nil)

	body, ct := multipartBody(t, "files", []upload{{"scan.bmp", []byte("BM")}}, nil)
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "UNSUPPORTED_FORMAT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "scan.bmp")
}

func TestAnalysisHandler_Analyze_PartialFailureReported(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	svc.On("AnalyzeBatch", mock.Anything, mock.Anything).Return(&service.BatchOutcome{
		Files: []*service.FileOutcome{
			{File: "ok.txt", State: domain.FileStateDone, Results: []*domain.AnalysisResult{{AnalyzedText: "fine"}}},
			{File: "bad.pdf", State: domain.FileStateFailed},
		},
		Errors: []error{&domain.StageError{File: "bad.pdf", Stage: domain.StageExtract, Err: errors.New("broken xref")}},
	}, nil)

	body, ct := multipartBody(t, "files", []upload{{"ok.txt", []byte("x")}, {"bad.pdf", []byte("y")}}, nil)
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Len(t, data["results"], 1)
	errs := data["errors"].([]any)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "bad.pdf: extract stage failed: broken xref", errs[0])
	}
}

func TestAnalysisHandler_Analyze_RateLimited(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	rl := analyzer.NewRateLimitError("openai", errors.New("quota"), 30)
	svc.On("AnalyzeBatch", mock.Anything, mock.Anything).Return(nil,
		&domain.StageError{File: "a.txt", Stage: domain.StageAnalyze, Chunk: 2, Err: &domain.AIServiceError{Provider: "openai", Err: rl}})

	body, ct := multipartBody(t, "files", []upload{{"a.txt", []byte("x")}}, map[string]string{"mode": "combine"})
	w := serve(r, postForm(body, ct, "/analyses"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))
}

func TestAnalysisHandler_AnalyzeText_Success(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	svc.On("AnalyzeText", mock.Anything, service.AnalyzeTextInput{
		Text: "some text", AnalysisType: "Key Points", Provider: "gemini",
	}).Return(&domain.AnalysisResult{FileName: "text_input", AnalyzedText: "points"}, nil)

	req, _ := http.NewRequest(http.MethodPost, "/analyses/text",
		strings.NewReader(`{"text":"some text","analysis_type":"Key Points","provider":"gemini"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, "points", data["analyzed_text"])
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_AnalyzeText_Errors(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	req, _ := http.NewRequest(http.MethodPost, "/analyses/text", strings.NewReader(`{"text":`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))

	svc.On("AnalyzeText", mock.Anything, mock.Anything).
		Return(nil, &domain.StageError{File: "text_input", Stage: domain.StageAnalyze, Err: domain.ErrEmptyText}).Once()
	req, _ = http.NewRequest(http.MethodPost, "/analyses/text", strings.NewReader(`{"text":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_TEXT", errorCode(t, w))

	svc.On("AnalyzeText", mock.Anything, mock.Anything).
		Return(nil, &domain.StageError{File: "text_input", Stage: domain.StageAnalyze, Err: domain.ErrUnknownAnalysisType}).Once()
	req, _ = http.NewRequest(http.MethodPost, "/analyses/text", strings.NewReader(`{"text":"x","analysis_type":"Haiku"}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_ANALYSIS_TYPE", errorCode(t, w))
}

func TestAnalysisHandler_SplitPreview(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	r := newAnalysisRouter(svc, testProcessingConfig())

	var staged string
	svc.On("PreviewSplit", mock.Anything, mock.MatchedBy(func(p string) bool {
		staged = p
		return filepath.Base(p) == "report.txt"
	}), domain.SplitOptions{Method: domain.SplitMethodPage, ChunkSize: 3}).
		Return(&service.SplitPreview{File: "report.txt", Method: domain.SplitMethodPage, ChunkSize: 3, ChunkCount: 1,
			Chunks: []service.ChunkInfo{{Index: 1, Chars: 5, EstimatedTokens: 1, Preview: "hello"}}}, nil)

	body, ct := multipartBody(t, "file", []upload{{"report.txt", []byte("hello")}}, nil)
	w := serve(r, postForm(body, ct, "/analyses/split-preview"))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.EqualValues(t, 1, data["chunk_count"])
	_, err := os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_SplitPreview_MissingFile(t *testing.T) {
	r := newAnalysisRouter(new(mocks.MockAnalysisService), testProcessingConfig())

	body, ct := multipartBody(t, "file", nil, map[string]string{"split_method": "token"})
	w := serve(r, postForm(body, ct, "/analyses/split-preview"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(t, w))
}
