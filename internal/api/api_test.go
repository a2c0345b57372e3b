package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/easeread/easeread/internal/assist"
	"github.com/easeread/easeread/internal/idiom"
)

type staticService struct{}

func (staticService) Probe(context.Context) assist.Availability { return assist.Ready }

func (staticService) Summarize(_ context.Context, _ string, _ assist.SummarizeOpts) (string, error) {
	return "- summary", nil
}
func (staticService) Simplify(_ context.Context, text, _ string) (string, error) {
	return "simple: " + text, nil
}
func (staticService) Expand(_ context.Context, text string) (string, error) {
	return text + " with more detail", nil
}
func (staticService) RewriteTone(_ context.Context, text, _ string) (string, error) {
	return text, nil
}
func (staticService) Restructure(_ context.Context, text string) (string, error) {
	return text, nil
}
func (staticService) ActiveVoice(_ context.Context, text string) (string, error) {
	return text, nil
}
func (staticService) PlainLanguage(_ context.Context, text, _ string) (string, error) {
	return text, nil
}
func (staticService) DetectIdiom(context.Context, string) (assist.IdiomResult, error) {
	return assist.IdiomResult{}, nil
}
func (staticService) ExplainTerm(_ context.Context, term, _ string) (string, error) {
	return term, nil
}
func (staticService) ExplainIdiom(_ context.Context, idiom string) (string, error) {
	return idiom, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	scanner, err := idiom.NewScanner(nil, true)
	if err != nil {
		t.Fatalf("scanner: %v", err)
	}
	return NewServer(staticService{}, scanner, nil, zerolog.Nop())
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

const samplePage = `<html><head><title>Sample</title></head><body><article>
<p>The committee will utilize every available resource to facilitate progress.</p>
<p>We decided to call it a day after the long meeting finished yesterday.</p>
</article></body></html>`

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["assist"] != "ready" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/v1/analyze", map[string]string{"html": samplePage})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Title != "Sample" {
		t.Errorf("title = %q", resp.Title)
	}
	if resp.Metrics.WordCount == 0 || resp.Metrics.SentenceCount != 2 {
		t.Errorf("unexpected metrics: %+v", resp.Metrics)
	}
	if resp.DifficultyScore < 1 || resp.DifficultyScore > 10 {
		t.Errorf("difficulty out of range: %d", resp.DifficultyScore)
	}
	if resp.ChunkCount != 2 {
		t.Errorf("chunkCount = %d, want 2", resp.ChunkCount)
	}
}

func TestAnalyze_RequiresInput(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/v1/analyze", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRewrite_Simplify(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/v1/rewrite", map[string]any{
		"html":     samplePage,
		"features": []string{"simplify"},
		"level":    assist.LevelELI10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp rewriteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.HTML, "simple: The committee") {
		t.Errorf("rewritten html missing transformed text:\n%s", resp.HTML)
	}
	if !strings.Contains(resp.HTML, "easeread-simplify") {
		t.Errorf("marker class missing:\n%s", resp.HTML)
	}
	if resp.Stats["simplify"].Succeeded != 2 {
		t.Errorf("stats = %+v", resp.Stats)
	}
}

func TestRewrite_UnknownFeature(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/v1/rewrite", map[string]any{
		"html":     samplePage,
		"features": []string{"teleport"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRewrite_NoContent(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/v1/rewrite", map[string]any{
		"html":     `<html><body><nav><p>Home | About | Contact navigation</p></nav></body></html>`,
		"features": []string{"simplify"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestIdioms_Findings(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/v1/idioms", map[string]any{
		"text": "We should call it a day. The next task is easy.",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp idiomsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Findings) != 1 || resp.Findings[0].Idiom != "call it a day" {
		t.Fatalf("findings = %+v", resp.Findings)
	}
}

func TestExplain(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, "/v1/explain", map[string]string{"idiom": "break the ice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp explainResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Explanation == "" {
		t.Error("expected a non-empty explanation")
	}

	rec = postJSON(t, srv, "/v1/explain", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIdioms_Annotate(t *testing.T) {
	srv := newTestServer(t)
	rec := postJSON(t, srv, "/v1/idioms", map[string]any{
		"html":     samplePage,
		"annotate": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp idiomsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.HTML, `class="easeread-idiom"`) {
		t.Errorf("annotated html missing idiom span:\n%s", resp.HTML)
	}
	if len(resp.Findings) == 0 {
		t.Error("expected at least one finding")
	}
}
