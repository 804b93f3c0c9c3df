package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naka-gawa/namespace-stats/internal/domain"
	"github.com/naka-gawa/namespace-stats/internal/usecase"
	"github.com/naka-gawa/namespace-stats/internal/view"
)

// ContributorsResponse is a contributor dataset plus the filtered views of it.
type ContributorsResponse struct {
	*usecase.ContributorResult
	Contributors   []domain.ContributorSummary `json:"contributors"`
	Repositories   []view.RepositoryCard       `json:"repositories"`
	CacheRemaining string                      `json:"cacheRemaining"`
}

// CacheStatus describes the cache entry of one identity.
type CacheStatus struct {
	User             string `json:"user"`
	Cached           bool   `json:"cached"`
	RemainingSeconds int64  `json:"remainingSeconds"`
	Remaining        string `json:"remaining"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// ensureLoaded performs the first load lazily; later requests read the published state.
func (s *Server) ensureLoaded(r *http.Request) domain.StatsState {
	state := s.stats.State()
	if state.Snapshot == nil && state.Error == "" && !state.Loading {
		// the error is already part of the published state
		_, _ = s.stats.Load(r.Context())
		state = s.stats.State()
	}
	return state
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.ensureLoaded(r))
}

func (s *Server) handleRefreshStats(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if _, err := s.stats.Refresh(r.Context()); err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, s.logger, status, s.stats.State())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state := s.ensureLoaded(r)
	if state.Snapshot == nil {
		writeJSON(w, s.logger, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: state.Error})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, view.BuildDashboard(state.Snapshot))
}

func (s *Server) handleOffchainNames(w http.ResponseWriter, r *http.Request) {
	visible := view.DefaultVisibleOffchainNames
	if raw := r.URL.Query().Get("visible"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, s.logger, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "visible must be a non-negative integer"})
			return
		}
		visible = n
	}

	state := s.ensureLoaded(r)
	if state.Snapshot == nil {
		writeJSON(w, s.logger, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: state.Error})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, view.OffchainNames(state.Snapshot.Offchain, visible))
}

func (s *Server) handleContributors(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	result, err := s.contributors.Aggregate(r.Context(), user, refresh)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.writeContributors(w, r, user, result)
}

func (s *Server) handleCachedContributors(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	result, err := s.contributors.Cached(r.Context(), user)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.writeContributors(w, r, user, result)
}

func (s *Server) writeContributors(w http.ResponseWriter, r *http.Request, user string, result *usecase.ContributorResult) {
	term := r.URL.Query().Get("q")
	repos := view.FilterRepositories(result.Dataset.ContributorsByRepo, term)
	cards := make([]view.RepositoryCard, 0, len(repos))
	for _, repo := range repos {
		cards = append(cards, view.NewRepositoryCard(repo))
	}
	remaining, _ := s.contributors.CacheTimeRemaining(r.Context(), user)

	writeJSON(w, s.logger, http.StatusOK, ContributorsResponse{
		ContributorResult: result,
		Contributors:      view.FilterContributors(result.Dataset.Summary.TopContributors, term),
		Repositories:      cards,
		CacheRemaining:    view.FormatRemaining(remaining),
	})
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	remaining, _ := s.contributors.CacheTimeRemaining(r.Context(), user)
	writeJSON(w, s.logger, http.StatusOK, CacheStatus{
		User:             user,
		Cached:           remaining > 0,
		RemainingSeconds: int64(remaining / time.Second),
		Remaining:        view.FormatRemaining(remaining),
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.contributors.ClearCache(r.Context(), chi.URLParam(r, "user")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
