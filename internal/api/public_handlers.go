package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/toki/internal/actions"
	"github.com/darmiel/toki/internal/api/presenter"
	"github.com/darmiel/toki/internal/buildinfo"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

// handleListActions responds with the action catalog, including the currently known realms
// and token types.
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	catalog, err := actions.List(r.Context(), s.tokens, s.tokens)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to list actions")
		presenter.Error(w, r, "failed to list actions", http.StatusInternalServerError)
		return
	}
	presenter.JSON(w, r, catalog, http.StatusOK)
}
