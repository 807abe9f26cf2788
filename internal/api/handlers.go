package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spindlehq/spindle/internal/lexicon"
	"github.com/spindlehq/spindle/internal/metrics"
	"github.com/spindlehq/spindle/internal/ratelimit"
	"github.com/spindlehq/spindle/internal/spintax"
	"github.com/spindlehq/spindle/internal/strategy"
	"github.com/spindlehq/spindle/internal/variant"
)

// ValidateRequest is the request body for POST /validate
type ValidateRequest struct {
	Template string `json:"template"`
}

// SyntaxIssue describes a template syntax error
type SyntaxIssue struct {
	Kind    string `json:"kind"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

// ValidateResponse is the response for POST /validate
type ValidateResponse struct {
	Valid bool         `json:"valid"`
	Error *SyntaxIssue `json:"error,omitempty"`
}

// GenerateRequest is the request body for POST /variants
type GenerateRequest struct {
	Template   string         `json:"template"`
	Count      int            `json:"count"`
	Seed       uint64         `json:"seed,omitempty"`
	Strategies strategy.Flags `json:"strategies,omitempty"`
	Mode       string         `json:"mode,omitempty"`
}

// GenerateResponse is the response for POST /variants
type GenerateResponse struct {
	Variants []variant.Variant `json:"variants"`
	Stats    variant.Stats     `json:"stats"`
}

// ApplyRequest is the request body for POST /strategies/apply
type ApplyRequest struct {
	Texts      []string       `json:"texts"`
	Strategies strategy.Flags `json:"strategies"`
	Seed       uint64         `json:"seed,omitempty"`
}

// ApplyResponse is the response for POST /strategies/apply
type ApplyResponse struct {
	Texts []string `json:"texts"`
}

// SynonymsResponse is the response for GET /lexicon/synonyms
type SynonymsResponse struct {
	Synonyms map[string][]string `json:"synonyms"`
}

// WordSynonymsRequest is the request body for PUT /lexicon/synonyms/{word}
type WordSynonymsRequest struct {
	Synonyms []string `json:"synonyms"`
}

// WordSynonymsResponse is the response for GET /lexicon/synonyms/{word}
type WordSynonymsResponse struct {
	Word     string   `json:"word"`
	Synonyms []string `json:"synonyms"`
}

// TrendingResponse is the response for GET /lexicon/trending
type TrendingResponse struct {
	Trending []string `json:"trending"`
}

// AddTrendingRequest is the request body for POST /lexicon/trending
type AddTrendingRequest struct {
	Term string `json:"term"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Uptime  string         `json:"uptime"`
	Lexicon *lexicon.Stats `json:"lexicon,omitempty"`
}

// ErrorResponse is the error response. Kind and Offset are set only for
// template syntax errors so the console can point at the broken spot.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

// handleValidate handles POST /api/v1/validate
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Template == "" {
		s.sendError(w, http.StatusBadRequest, "template is required")
		return
	}
	if len(req.Template) > s.config.Generator.MaxTemplateBytes {
		s.sendError(w, http.StatusBadRequest,
			fmt.Sprintf("template exceeds %d bytes", s.config.Generator.MaxTemplateBytes))
		return
	}

	if err := spintax.Validate(req.Template); err != nil {
		var syntaxErr *spintax.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.trackValidationFailure(string(syntaxErr.Kind))
			s.sendJSON(w, http.StatusOK, ValidateResponse{
				Valid: false,
				Error: &SyntaxIssue{
					Kind:    string(syntaxErr.Kind),
					Offset:  syntaxErr.Offset,
					Message: syntaxErr.Message,
				},
			})
			return
		}
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.sendJSON(w, http.StatusOK, ValidateResponse{Valid: true})
}

// handleVariants handles POST /api/v1/variants
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate request
	if req.Template == "" {
		s.sendError(w, http.StatusBadRequest, "template is required")
		return
	}
	if len(req.Template) > s.config.Generator.MaxTemplateBytes {
		s.sendError(w, http.StatusBadRequest,
			fmt.Sprintf("template exceeds %d bytes", s.config.Generator.MaxTemplateBytes))
		return
	}
	if req.Count < 1 {
		s.sendError(w, http.StatusBadRequest, "count must be positive")
		return
	}
	if req.Count > s.config.Generator.MaxCount {
		req.Count = s.config.Generator.MaxCount
	}
	if req.Mode == "" {
		req.Mode = variant.ModeDesktop
	}

	if err := spintax.Validate(req.Template); err != nil {
		var syntaxErr *spintax.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.trackValidationFailure(string(syntaxErr.Kind))
			s.sendSyntaxError(w, syntaxErr)
			return
		}
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Quota check before any expansion work
	if s.deps.Limiter != nil {
		result, err := s.deps.Limiter.Allow(r.Context(), &ratelimit.Request{
			APIKey:   callerKey(r),
			Variants: req.Count,
		})
		if err != nil {
			s.logger.Error("quota check failed", "error", err)
			s.sendError(w, http.StatusInternalServerError, "Failed to check quota")
			return
		}
		if !result.Allowed {
			s.trackRateLimitExceeded(string(result.DeniedBy))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
			s.sendError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
	}

	tokens, err := spintax.Tokenize(req.Template)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	variants, stats := s.deps.Generator.Generate(tokens, variant.Request{
		Count:      req.Count,
		Seed:       req.Seed,
		Strategies: req.Strategies,
		Mode:       req.Mode,
	})

	// Remote enhancement replaces the local pipeline when configured;
	// failed texts keep their locally generated form
	if s.deps.Remote != nil && req.Strategies.Any() {
		texts := make([]string, len(variants))
		for i := range variants {
			texts[i] = variants[i].Text
		}
		enhanced := s.deps.Remote.Enhance(r.Context(), texts, req.Strategies)
		for i := range variants {
			variants[i].Text = enhanced[i]
		}
	}

	if s.deps.Collector != nil {
		s.deps.Collector.TrackVariantsGenerated(req.Mode, len(variants))
		s.deps.Collector.TrackExpansionAttempts(stats.Attempts)
		if dup := len(variants) - stats.Unique; dup > 0 {
			s.deps.Collector.TrackVariantDuplicates(dup)
		}
		if stats.BudgetExhausted {
			s.deps.Collector.TrackBudgetExhausted()
		}
		s.deps.Collector.ObserveGenerationDuration(time.Since(start).Seconds())
	}

	s.logger.Info("variant batch generated",
		"count", len(variants),
		"unique", stats.Unique,
		"attempts", stats.Attempts,
		"budget_exhausted", stats.BudgetExhausted,
		"mode", req.Mode,
	)

	s.sendJSON(w, http.StatusOK, GenerateResponse{
		Variants: variants,
		Stats:    stats,
	})
}

// handleApplyStrategies handles POST /api/v1/strategies/apply. This is the
// server side of strategy.RemoteClient: it always runs the local pipeline,
// so one Spindle can delegate enhancement to another.
func (s *Server) handleApplyStrategies(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Texts) == 0 {
		s.sendError(w, http.StatusBadRequest, "texts is required")
		return
	}

	texts := req.Texts
	if s.deps.Pipeline != nil && req.Strategies.Any() {
		rng := variant.NewRNG(req.Seed)
		out := make([]string, len(texts))
		for i, text := range texts {
			out[i] = s.deps.Pipeline.Apply(text, req.Strategies, rng)
		}
		texts = out
	}

	s.sendJSON(w, http.StatusOK, ApplyResponse{Texts: texts})
}

// handleListSynonyms handles GET /api/v1/lexicon/synonyms
func (s *Server) handleListSynonyms(w http.ResponseWriter, r *http.Request) {
	table, err := s.deps.Lexicon.Synonyms()
	if err != nil {
		s.logger.Error("failed to list synonyms", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list synonyms")
		return
	}

	s.sendJSON(w, http.StatusOK, SynonymsResponse{Synonyms: table})
}

// handleGetSynonyms handles GET /api/v1/lexicon/synonyms/{word}
func (s *Server) handleGetSynonyms(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")

	alts, err := s.deps.Lexicon.SynonymsFor(word)
	if err != nil {
		s.logger.Error("failed to get synonyms", "word", word, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get synonyms")
		return
	}

	if len(alts) == 0 {
		s.sendError(w, http.StatusNotFound, "Word not found")
		return
	}

	s.sendJSON(w, http.StatusOK, WordSynonymsResponse{
		Word:     strings.ToLower(word),
		Synonyms: alts,
	})
}

// handlePutSynonyms handles PUT /api/v1/lexicon/synonyms/{word}
func (s *Server) handlePutSynonyms(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")

	var req WordSynonymsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Synonyms) == 0 {
		s.sendError(w, http.StatusBadRequest, "at least one synonym is required")
		return
	}

	if err := s.deps.Lexicon.PutSynonyms(word, req.Synonyms); err != nil {
		s.logger.Error("failed to store synonyms", "word", word, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to store synonyms")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteSynonyms handles DELETE /api/v1/lexicon/synonyms/{word}
func (s *Server) handleDeleteSynonyms(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")

	if err := s.deps.Lexicon.DeleteSynonyms(word); err != nil {
		s.logger.Error("failed to delete synonyms", "word", word, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to delete synonyms")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListTrending handles GET /api/v1/lexicon/trending
func (s *Server) handleListTrending(w http.ResponseWriter, r *http.Request) {
	terms, err := s.deps.Lexicon.TrendingTerms()
	if err != nil {
		s.logger.Error("failed to list trending terms", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list trending terms")
		return
	}

	s.sendJSON(w, http.StatusOK, TrendingResponse{Trending: terms})
}

// handleAddTrending handles POST /api/v1/lexicon/trending
func (s *Server) handleAddTrending(w http.ResponseWriter, r *http.Request) {
	var req AddTrendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Term) == "" {
		s.sendError(w, http.StatusBadRequest, "term is required")
		return
	}

	if err := s.deps.Lexicon.AddTrending(req.Term); err != nil {
		s.logger.Error("failed to add trending term", "term", req.Term, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to add trending term")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveTrending handles DELETE /api/v1/lexicon/trending/{term}
func (s *Server) handleRemoveTrending(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	// Terms may contain spaces
	if unescaped, err := url.PathUnescape(term); err == nil {
		term = unescaped
	}

	if err := s.deps.Lexicon.RemoveTrending(term); err != nil {
		s.logger.Error("failed to remove trending term", "term", term, "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to remove trending term")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleLexiconStats handles GET /api/v1/lexicon/stats
func (s *Server) handleLexiconStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Lexicon.Stats()
	if err != nil {
		s.logger.Error("failed to get lexicon stats", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to get lexicon stats")
		return
	}

	s.sendJSON(w, http.StatusOK, stats)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, _ := s.deps.Lexicon.Stats()

	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
		Uptime:  time.Since(s.startTime).String(),
		Lexicon: stats,
	})
}

// sendJSON sends a JSON response
func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}

// sendSyntaxError sends a 400 carrying the error kind and byte offset
func (s *Server) sendSyntaxError(w http.ResponseWriter, serr *spintax.SyntaxError) {
	offset := serr.Offset
	s.sendJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  serr.Message,
		Kind:   string(serr.Kind),
		Offset: &offset,
	})
}

func (s *Server) trackValidationFailure(kind string) {
	if s.deps.Collector != nil {
		s.deps.Collector.TrackValidationFailure(kind)
		return
	}
	metrics.IncValidationFailure(kind)
}

func (s *Server) trackRateLimitExceeded(level string) {
	if s.deps.Collector != nil {
		s.deps.Collector.TrackRateLimitExceeded(level)
		return
	}
	metrics.IncRateLimitExceeded(level)
}

// retryAfterSeconds converts a quota reset duration to whole seconds,
// rounding up so clients never retry early
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
