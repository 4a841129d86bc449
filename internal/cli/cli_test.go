package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/cli"
)

type fixture struct {
	dir     string
	cfgPath string
	calls   atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := f.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": fmt.Sprintf("analysis %d", n)}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	f.cfgPath = filepath.Join(f.dir, "config.yaml")
	cfg := fmt.Sprintf(`log:
  level: error
ai:
  default_provider: openai
  providers:
    openai:
      api_key: test-key
      base_url: %s
processing:
  enable_cache: false
history:
  path: %s
export:
  sink: local
  dir: %s
`, srv.URL, filepath.Join(f.dir, "history.db"), filepath.Join(f.dir, "stored"))
	require.NoError(t, os.WriteFile(f.cfgPath, []byte(cfg), 0o600))
	return f
}

func (f *fixture) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (f *fixture) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	err := cli.Execute(context.Background(), cli.Options{Out: &out, Err: &errOut}, append([]string{"--config", f.cfgPath}, args...))
	return out.String(), errOut.String(), err
}

var idPattern = regexp.MustCompile(`id: ([0-9a-f-]{36})`)

func TestAnalyze_PrintsResult(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "notes.txt", "Meeting notes about the quarterly plan.")

	out, _, err := f.run("analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "== notes.txt ==")
	assert.Contains(t, out, "provider: openai")
	assert.Contains(t, out, "analysis 1")
	assert.Regexp(t, idPattern, out)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestAnalyze_Export(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "notes.txt", "Some text.")
	outDir := filepath.Join(f.dir, "out")

	out, _, err := f.run("analyze", path, "--export", "md", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+outDir)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".md"))
}

func TestAnalyze_PartialFailure(t *testing.T) {
	f := newFixture(t)
	good := f.file(t, "good.txt", "hello")
	bad := f.file(t, "bad.xyz", "???")

	out, errOut, err := f.run("analyze", good, bad)
	require.NoError(t, err)
	assert.Contains(t, out, "good.txt")
	assert.Contains(t, errOut, "bad.xyz")
}

func TestAnalyze_AllFailed(t *testing.T) {
	f := newFixture(t)
	bad := f.file(t, "bad.xyz", "???")

	_, _, err := f.run("analyze", bad)
	assert.ErrorContains(t, err, "no file was analyzed")
	assert.Zero(t, f.calls.Load())
}

func TestAnalyze_FlagErrors(t *testing.T) {
	f := newFixture(t)
	path := f.file(t, "a.txt", "text")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"mode", []string{"--mode", "both"}, "invalid --mode"},
		{"strategy", []string{"--strategy", "vote"}, "unknown combine strategy"},
		{"export", []string{"--export", "rtf"}, "unknown export format"},
		{"split method", []string{"--split-method", "line"}, "invalid --split-method"},
		{"chunk size", []string{"--chunk-size", "0"}, "chunk size must be at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.run(append([]string{"analyze", path}, tt.args...)...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
	assert.Zero(t, f.calls.Load())
}

func TestSplit_Preview(t *testing.T) {
	f := newFixture(t)
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Paragraph %d has a handful of words in it.\n\n", i)
	}
	path := f.file(t, "long.txt", b.String())

	out, _, err := f.run("split", path, "--split-method", "token", "--chunk-size", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "long.txt:")
	assert.Contains(t, out, "token method, size 50")
	assert.Contains(t, out, "PREVIEW")
	assert.Zero(t, f.calls.Load())
}

func TestTypes(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("types")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "built-in")
}

func TestFormats(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("formats")
	require.NoError(t, err)
	assert.Contains(t, out, "pdf")
	assert.Contains(t, out, "docx")
	assert.Contains(t, out, "sequential")
	assert.Contains(t, out, "summarize")
}

func TestHistory_Flow(t *testing.T) {
	f := newFixture(t)
	first := f.file(t, "first.txt", "first document")
	second := f.file(t, "second.txt", "second document")

	out, _, err := f.run("analyze", first, second)
	require.NoError(t, err)
	ids := idPattern.FindAllStringSubmatch(out, -1)
	require.Len(t, ids, 2)
	id1, id2 := ids[0][1], ids[1][1]

	out, _, err = f.run("history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id1)
	assert.Contains(t, out, id2)
	assert.Contains(t, out, "2 of 2 entries")

	out, _, err = f.run("history", "list", "--csv")
	require.NoError(t, err)
	assert.Contains(t, out, "first.txt")
	assert.Contains(t, out, "second.txt")

	out, _, err = f.run("history", "show", id1, "--full")
	require.NoError(t, err)
	assert.Contains(t, out, "first.txt")
	assert.Contains(t, out, "first document")

	exportDir := filepath.Join(f.dir, "exports")
	out, _, err = f.run("history", "export", id1, "--format", "json", "--out", exportDir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+exportDir)

	out, _, err = f.run("history", "export", id1, "--format", "txt", "--store")
	require.NoError(t, err)
	assert.Contains(t, out, "stored exports/"+id1)
	stored, err := os.ReadDir(filepath.Join(f.dir, "stored", "exports", id1))
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	out, _, err = f.run("history", "export", id1, "--format", "txt", "--delete")
	require.NoError(t, err)
	assert.Contains(t, out, "removed stored txt export")
	stored, err = os.ReadDir(filepath.Join(f.dir, "stored", "exports", id1))
	require.NoError(t, err)
	assert.Empty(t, stored)

	out, _, err = f.run("history", "combine", id1, id2, "--strategy", "sequential")
	require.NoError(t, err)
	assert.Contains(t, out, "combined 2 results into")

	out, _, err = f.run("history", "delete", id2)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+id2)

	_, _, err = f.run("history", "show", id2)
	assert.ErrorContains(t, err, "not found")

	out, _, err = f.run("history", "list", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 entries")
}

func TestHistory_InvalidID(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run("history", "show", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid entry ID")
}
