package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/easeread/easeread/internal/difficulty"
	"github.com/easeread/easeread/internal/engine"
	"github.com/easeread/easeread/internal/idiom"
	"github.com/easeread/easeread/internal/locate"
	"github.com/easeread/easeread/internal/metrics"
	"github.com/easeread/easeread/internal/page"
	"github.com/easeread/easeread/internal/transform"
)

// pageInput is the shared request shape: inline markup or a URL to fetch.
type pageInput struct {
	HTML string `json:"html"`
	URL  string `json:"url"`
}

func (s *Server) loadDocument(r *http.Request, in pageInput) (*page.Document, error) {
	switch {
	case in.HTML != "":
		return page.Parse([]byte(in.HTML))
	case in.URL != "":
		if s.fetcher == nil {
			return nil, errors.New("URL input is disabled")
		}
		body, _, err := s.fetcher.Page(r.Context(), in.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", in.URL, err)
		}
		return page.Parse(body)
	default:
		return nil, errors.New("either html or url is required")
	}
}

type analyzeRequest struct {
	pageInput
}

type analyzeResponse struct {
	Title           string          `json:"title"`
	Metrics         metrics.Metrics `json:"metrics"`
	DifficultyScore int             `json:"difficultyScore"`
	DifficultTerms  []string        `json:"difficultTerms"`
	ChunkCount      int             `json:"chunkCount"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decode(w, r, &req) {
		return
	}
	doc, err := s.loadDocument(r, req.pageInput)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	text := locate.MainText(doc)
	m := metrics.Compute(text)
	eng := engine.New(doc, s.assist, s.scanner, nil, engine.Options{})
	chunks, err := eng.Chunks()
	if err != nil && !errors.Is(err, engine.ErrNoContent) {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Title:           doc.Title(),
		Metrics:         m,
		DifficultyScore: metrics.DifficultyScore(m),
		DifficultTerms:  difficulty.IdentifyTerms(text),
		ChunkCount:      len(chunks),
	})
}

type rewriteRequest struct {
	pageInput
	Features []string `json:"features"`
	Level    string   `json:"level"`
	Tone     string   `json:"tone"`
	Domain   string   `json:"domain"`
}

type rewriteResponse struct {
	HTML  string                     `json:"html"`
	Stats map[string]transform.Stats `json:"stats"`
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Features) == 0 {
		jsonError(w, "at least one feature is required", http.StatusBadRequest)
		return
	}
	features := make([]engine.Feature, 0, len(req.Features))
	for _, name := range req.Features {
		f, err := engine.ParseFeature(name)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		features = append(features, f)
	}
	doc, err := s.loadDocument(r, req.pageInput)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	eng := engine.New(doc, s.assist, s.scanner, nil, engine.Options{
		SimplifyLevel: req.Level,
		Tone:          req.Tone,
		Domain:        req.Domain,
	})
	stats := make(map[string]transform.Stats, len(features))
	for _, f := range features {
		st, err := eng.Enable(r.Context(), f)
		if err != nil {
			if errors.Is(err, engine.ErrNoContent) {
				jsonError(w, "no substantive content found", http.StatusUnprocessableEntity)
				return
			}
			jsonError(w, fmt.Sprintf("apply %s: %v", f, err), http.StatusBadGateway)
			return
		}
		stats[string(f)] = st
	}

	html, err := doc.Render()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rewriteResponse{HTML: html, Stats: stats})
}

type idiomsRequest struct {
	pageInput
	Text     string `json:"text"`
	Annotate bool   `json:"annotate"`
}

type idiomFinding struct {
	Idiom    string `json:"idiom"`
	Literal  string `json:"literal,omitempty"`
	Sentence string `json:"sentence"`
}

type idiomsResponse struct {
	Findings []idiomFinding `json:"findings"`
	HTML     string         `json:"html,omitempty"`
}

func (s *Server) handleIdioms(w http.ResponseWriter, r *http.Request) {
	var req idiomsRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Text != "" {
		writeJSON(w, http.StatusOK, idiomsResponse{
			Findings: toFindings(s.scanner.FindAll(r.Context(), req.Text)),
		})
		return
	}

	doc, err := s.loadDocument(r, req.pageInput)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := idiomsResponse{
		Findings: toFindings(s.scanner.FindAll(r.Context(), locate.MainText(doc))),
	}
	if req.Annotate {
		if _, err := s.scanner.Annotate(r.Context(), doc, locate.Main(doc)); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		html, err := doc.Render()
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.HTML = html
	}
	writeJSON(w, http.StatusOK, resp)
}

type explainRequest struct {
	Term     string `json:"term"`
	Idiom    string `json:"idiom"`
	Sentence string `json:"sentence"`
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.Idiom != "":
		out, err := s.scanner.Explain(r.Context(), req.Idiom)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, explainResponse{Explanation: out})
	case req.Term != "":
		out, err := s.assist.ExplainTerm(r.Context(), req.Term, req.Sentence)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, explainResponse{Explanation: out})
	default:
		jsonError(w, "either term or idiom is required", http.StatusBadRequest)
	}
}

func toFindings(matches []idiom.Match) []idiomFinding {
	out := make([]idiomFinding, 0, len(matches))
	for _, m := range matches {
		out = append(out, idiomFinding{Idiom: m.Idiom, Literal: m.Literal, Sentence: m.Sentence})
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
