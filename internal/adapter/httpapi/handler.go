// Package httpapi exposes the game sessions over a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/adapter/mapping"
	"github.com/eslsoft/lvgames/internal/entity"
	"github.com/eslsoft/lvgames/internal/repository"
	"github.com/eslsoft/lvgames/internal/usecase/report"
	"github.com/eslsoft/lvgames/internal/usecase/session"
)

const maxBodyBytes = 1 << 20

// Handler serves the game API.
type Handler struct {
	sessions *session.Manager
	results  repository.ResultRepository
	logger   *logrus.Logger
}

// NewHandler builds the API handler over the registered sessions.
func NewHandler(sessions *session.Manager, results repository.ResultRepository, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{sessions: sessions, results: results, logger: logger}
}

// Routes registers the API on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/games", h.listGames)
	mux.HandleFunc("POST /api/games/{game}/start", h.withSession(h.start))
	mux.HandleFunc("POST /api/games/{game}/rounds", h.withSession(h.nextRound))
	mux.HandleFunc("GET /api/games/{game}/rounds/current", h.withSession(h.currentRound))
	mux.HandleFunc("POST /api/games/{game}/answers", h.withSession(h.answer))
	mux.HandleFunc("POST /api/games/{game}/finish", h.withSession(h.finish))
	mux.HandleFunc("POST /api/games/{game}/mix", h.withSession(h.mix))
	mux.HandleFunc("POST /api/games/{game}/reset", h.withSession(h.reset))
	mux.HandleFunc("GET /api/games/{game}/state", h.withSession(h.state))
	mux.HandleFunc("PUT /api/games/{game}/config", h.withSession(h.updateConfig))
	mux.HandleFunc("GET /api/games/{game}/choices", h.withSession(h.choices))
	mux.HandleFunc("GET /api/games/{game}/results.csv", h.withSession(h.resultsCSV))
	return mux
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

func (h *Handler) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Get(r.PathValue("game"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		next(w, r, s)
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type gameSummary struct {
	Name  string          `json:"name"`
	Phase session.Phase   `json:"phase"`
	Mode  entity.GameMode `json:"mode"`
	Deck  int             `json:"deck"`
}

func (h *Handler) listGames(w http.ResponseWriter, _ *http.Request) {
	names := h.sessions.Games()
	games := make([]gameSummary, 0, len(names))
	for _, name := range names {
		s, err := h.sessions.Get(name)
		if err != nil {
			continue
		}
		state := s.State()
		games = append(games, gameSummary{
			Name:  name,
			Phase: state.Phase,
			Mode:  state.Engine.Config.Mode,
			Deck:  state.Engine.DeckSize,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := s.Start(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (h *Handler) nextRound(w http.ResponseWriter, r *http.Request, s *session.Session) {
	round, err := s.NextRound(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (h *Handler) currentRound(w http.ResponseWriter, r *http.Request, s *session.Session) {
	q := r.URL.Query()
	var (
		round session.Round
		err   error
	)
	if q.Get("redraw") == "1" || q.Get("redraw") == "true" {
		round, err = s.Redraw(r.Context(), entity.ParseLanguage(q.Get("lang")))
	} else {
		round, err = s.Current()
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

type answerRequest struct {
	// ItemID is the Latvian card (match) or the asked item (guess).
	ItemID string `json:"itemId"`
	// MatchID is the translation card paired with ItemID.
	MatchID string `json:"matchId"`
	// Text is a typed answer; when present the answer is a guess.
	Text *string `json:"text"`
}

func (h *Handler) answer(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "itemId required"})
		return
	}

	var (
		ans session.Answer
		err error
	)
	if req.Text != nil {
		ans, err = s.Guess(r.Context(), req.ItemID, *req.Text)
	} else {
		ans, err = s.Match(r.Context(), req.ItemID, req.MatchID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, s *session.Session) {
	result, err := s.Finish(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type mixRequest struct {
	Size int `json:"size"`
}

func (h *Handler) mix(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req mixRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	result, err := s.NewMix(r.Context(), req.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := s.Reset(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (h *Handler) state(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, s.State())
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request, s *session.Session) {
	config := s.Engine().Config()
	if err := decodeJSON(r, &config); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	updated, err := s.Engine().SetConfig(r.Context(), config)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) choices(w http.ResponseWriter, r *http.Request, s *session.Session) {
	q := r.URL.Query()
	n := 4
	if raw := q.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "n must be an integer"})
			return
		}
		n = parsed
	}
	question, err := s.Question(q.Get("id"), n)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *Handler) resultsCSV(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if h.results == nil {
		h.writeError(w, errors.New("result log not configured"))
		return
	}
	since, err := report.ParseSince(r.URL.Query().Get("since"), time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	query := &repository.ListResultQuery{Game: s.Game(), Since: since}
	results, _, err := h.results.List(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.Game()+"-results.csv"))
	if err := report.WriteCSV(w, results); err != nil {
		h.logger.WithError(err).Warn("write results csv")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := mapping.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
