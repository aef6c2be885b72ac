package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/diogo/msgcoach/internal/errors"
	"github.com/diogo/msgcoach/internal/history"
	"github.com/diogo/msgcoach/internal/models"
	"github.com/diogo/msgcoach/internal/render"
	"github.com/diogo/msgcoach/internal/session"
)

type rewriteRequest struct {
	Text         string `json:"text"`
	Tone         string `json:"tone"`
	Model        string `json:"model"`
	Privacy      *bool  `json:"privacy"`
	SystemPrompt string `json:"system_prompt"`
}

type rewriteResponse struct {
	ID        string           `json:"id"`
	Rewritten string           `json:"rewritten"`
	HTML      string           `json:"html"`
	Sections  *models.Sections `json:"sections"`
	Tone      models.Tone      `json:"tone"`
	Model     string           `json:"model"`
	Masked    bool             `json:"masked"`
	Notices   []string         `json:"notices"`
	Attempts  int              `json:"attempts"`
	ElapsedMs int64            `json:"elapsed_ms"`
}

type settingsResponse struct {
	Tone         models.Tone `json:"tone"`
	Model        string      `json:"model"`
	Privacy      bool        `json:"privacy"`
	SystemPrompt string      `json:"system_prompt"`
}

type modelInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Current     bool   `json:"current"`
}

type historyResponse struct {
	Count   int                   `json:"count"`
	Entries []models.HistoryEntry `json:"entries"`
}

type searchMatch struct {
	Entry   models.HistoryEntry `json:"entry"`
	Snippet string              `json:"snippet"`
	Field   string              `json:"field"`
}

type searchResponse struct {
	Query   string        `json:"query"`
	Count   int           `json:"count"`
	Matches []searchMatch `json:"matches"`
}

type healthResponse struct {
	Status     string `json:"status"`
	APIKey     bool   `json:"api_key"`
	HistoryLen int    `json:"history_len"`
}

// settingsFor merges the fields set in req over the current settings
func settingsFor(current session.Settings, req rewriteRequest) (session.Settings, error) {
	st := current
	if req.Tone != "" {
		tone, err := models.ParseTone(req.Tone)
		if err != nil {
			return st, err
		}
		st.Tone = tone
	}
	if req.Model != "" {
		m, err := models.ModelFromName(req.Model)
		if err != nil {
			return st, err
		}
		st.Model = m
	}
	if req.Privacy != nil {
		st.Privacy = *req.Privacy
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		st.SystemPrompt = req.SystemPrompt
	}
	return st, nil
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		err := apierrors.NewEmptyInputError()
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   err.Error(),
			Hint:    apierrors.Hint(err),
			Warning: true,
		})
		return
	}

	settings, err := settingsFor(s.session.Settings(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	resp, err := s.session.SubmitWith(r.Context(), req.Text, settings)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Warn("rewrite request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error: fmt.Sprintf("rewrite failed: %v", err),
			Hint:  apierrors.Hint(err),
		})
		return
	}

	html, err := render.RewriteHTML(resp.Result.RewrittenText, resp.Notices)
	if err != nil {
		s.logger.Debug("html rendering failed", zap.Error(err))
		html = ""
	}

	notices := resp.Notices
	if notices == nil {
		notices = []string{}
	}

	writeJSON(w, http.StatusOK, rewriteResponse{
		ID:        resp.Entry.ID,
		Rewritten: resp.Result.RewrittenText,
		HTML:      html,
		Sections:  resp.Sections,
		Tone:      resp.Entry.Tone,
		Model:     resp.Entry.Model,
		Masked:    resp.Result.Masked,
		Notices:   notices,
		Attempts:  resp.Result.Attempts,
		ElapsedMs: elapsed.Milliseconds(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		matches := []searchMatch{}
		for _, res := range s.session.History().Search(q) {
			matches = append(matches, searchMatch{Entry: res.Entry, Snippet: res.MatchSnippet, Field: res.MatchField})
		}
		writeJSON(w, http.StatusOK, searchResponse{Query: q, Count: len(matches), Matches: matches})
		return
	}

	entries := s.session.History().Entries()
	writeJSON(w, http.StatusOK, historyResponse{Count: len(entries), Entries: entries})
}

// handleHistoryEntry looks one entry up by index, alias, ID prefix or text
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.session.History().Resolve(r.PathValue("ref"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Hint: history.ListAliases()})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n := s.session.History().Len()
	s.session.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := history.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := history.DefaultExportOptions()
	opts.Format = format
	data, err := s.session.History().Export(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="msgcoach-history.%s"`, format.Extension()))
	w.Write(data)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	current := s.session.Settings().Model.Name
	var out []modelInfo
	for _, m := range models.AllModels() {
		out = append(out, modelInfo{ID: m.Name, Description: m.Description, Current: m.Name == current})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tones":   models.ToneNames(),
		"current": s.session.Settings().Tone,
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.DemoPresets())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	st := s.session.Settings()
	writeJSON(w, http.StatusOK, settingsResponse{
		Tone:         st.Tone,
		Model:        st.Model.Name,
		Privacy:      st.Privacy,
		SystemPrompt: st.SystemPrompt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		APIKey:     s.apiKey,
		HistoryLen: s.session.History().Len(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}
