// Package httpapi implements the JSON-RPC 2.0 HTTP surface: three
// POST routes plus a health check, wire-compatible with
// original_source/api/server.py's envelope and error codes. The wire
// format is bit-exact-specified, so framing is hand-rolled against
// stdlib net/http rather than adopting a JSON-RPC framework.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/domain"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driving"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
)

// MaxBodyBytes is the request body cap; requests over this size map to
// JSON-RPC error -32600.
const MaxBodyBytes = 1 << 20 // 1 MiB

// JSON-RPC error codes, per spec.
const (
	codeParseError       = -32700
	codeBodyTooLarge     = -32600
	codeMethodNotFound   = -32601
	codeDocumentNotFound = -32004
	codeInternal         = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

// Server serves the JSON-RPC routes over the given Retriever.
type Server struct {
	retriever driving.Retriever
	mux       *http.ServeMux
}

// New constructs a Server wired to retriever.
func New(retriever driving.Retriever) *Server {
	s := &Server{retriever: retriever, mux: http.NewServeMux()}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/query", s.withBodyLimit(s.handleQuery))
	s.mux.HandleFunc("/api/v1/get_doc", s.withBodyLimit(s.handleGetDoc))
	s.mux.HandleFunc("/api/v1/find_concept", s.withBodyLimit(s.handleFindConcept))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run starts an HTTP server at addr and blocks until ctx is canceled,
// then shuts down gracefully, mirroring the teacher's RunHTTP shape.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("httpapi: shutdown error: %v", err)
		}
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withBodyLimit caps the request body at MaxBodyBytes, surfacing an
// oversized body as JSON-RPC error -32600 rather than letting the
// reader fail opaquely mid-decode.
func (s *Server) withBodyLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		next(w, r)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (rpcRequest, bool) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeRPCError(w, http.StatusRequestEntityTooLarge, nil, codeBodyTooLarge, "request body too large")
		} else {
			writeRPCError(w, http.StatusBadRequest, nil, codeParseError, "invalid json")
		}
		return rpcRequest{}, false
	}
	return req, true
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	var params struct {
		Query          string `json:"query"`
		MaxResults     int    `json:"max_results"`
		IncludeContent bool   `json:"include_content"`
		MaxTokens      int    `json:"max_tokens"`
		Section        string `json:"section"`
	}
	_ = json.Unmarshal(req.Params, &params)
	if params.MaxResults <= 0 {
		params.MaxResults = 10
	}

	results, err := s.retriever.Search(r.Context(), domain.SearchOptions{
		Query:          params.Query,
		Limit:          params.MaxResults,
		Mode:           domain.SearchModeSemantic,
		IncludeContent: params.IncludeContent,
		MaxTokens:      params.MaxTokens,
		Section:        params.Section,
	})
	if err != nil {
		writeRPCError(w, http.StatusInternalServerError, req.ID, codeInternal, err.Error())
		return
	}

	writeRPCResult(w, req.ID, map[string]any{
		"query":     params.Query,
		"documents": toDocumentViews(results),
		"count":     len(results),
	})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	var params struct {
		DocumentID     int64  `json:"document_id"`
		IncludeContent bool   `json:"include_content"`
		MaxTokens      int    `json:"max_tokens"`
		Section        string `json:"section"`
	}
	_ = json.Unmarshal(req.Params, &params)

	doc, err := s.retriever.GetDocument(r.Context(), params.DocumentID, params.IncludeContent, params.MaxTokens, params.Section)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeRPCError(w, http.StatusNotFound, req.ID, codeDocumentNotFound, "document not found")
			return
		}
		writeRPCError(w, http.StatusInternalServerError, req.ID, codeInternal, err.Error())
		return
	}

	writeRPCResult(w, req.ID, documentView{
		ID:       doc.ID,
		Path:     doc.Path,
		Title:    doc.Title,
		Summary:  doc.Summary,
		Category: doc.Category,
		Tags:     doc.Tags,
		Concepts: doc.Concepts,
	})
}

func (s *Server) handleFindConcept(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	var params struct {
		Concept    string `json:"concept"`
		MaxResults int    `json:"max_results"`
	}
	_ = json.Unmarshal(req.Params, &params)
	if params.MaxResults <= 0 {
		params.MaxResults = 10
	}

	docs, err := s.retriever.FindByConcept(r.Context(), params.Concept, params.MaxResults)
	if err != nil {
		writeRPCError(w, http.StatusInternalServerError, req.ID, codeInternal, err.Error())
		return
	}

	views := make([]documentView, len(docs))
	for i, d := range docs {
		views[i] = documentView{ID: d.ID, Path: d.Path, Title: d.Title, Summary: d.Summary, Category: d.Category, Tags: d.Tags, Concepts: d.Concepts}
	}

	writeRPCResult(w, req.ID, map[string]any{
		"concept":   params.Concept,
		"documents": views,
		"count":     len(views),
	})
}

type documentView struct {
	ID       int64    `json:"id"`
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Concepts []string `json:"concepts"`
	Score    float64  `json:"score,omitempty"`
	Body     string   `json:"body,omitempty"`
}

func toDocumentViews(results []domain.SearchResult) []documentView {
	views := make([]documentView, len(results))
	for i, r := range results {
		views[i] = documentView{
			ID:       r.Document.ID,
			Path:     r.Document.Path,
			Title:    r.Document.Title,
			Summary:  r.Document.Summary,
			Category: r.Document.Category,
			Tags:     r.Document.Tags,
			Concepts: r.Document.Concepts,
			Score:    r.Score,
			Body:     r.Body,
		}
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("httpapi: encode response: %v", err)
	}
}

func writeRPCResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", Result: result, ID: id})
}

func writeRPCError(w http.ResponseWriter, status int, id any, code int, message string) {
	writeJSON(w, status, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: message}, ID: id})
}
