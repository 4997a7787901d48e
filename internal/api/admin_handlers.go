package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/toki/internal/api/presenter"
	"github.com/darmiel/toki/internal/audit"
	"github.com/darmiel/toki/internal/core"
)

const defaultAuditLimit = 50

// handleAdminAudit processes requests to retrieve audit log entries.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	reader, ok := s.auditor.(core.AuditReader)
	if !ok {
		presenter.Error(w, r, "the configured auditor cannot be queried", http.StatusNotImplemented)
		return
	}

	// filters
	q := r.URL.Query()
	limitStr := q.Get("limit")

	limit := defaultAuditLimit
	if limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err != nil || v < 0 {
			logger.Warn().Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		} else {
			limit = v
		}
	}

	query := audit.Query{
		ID:         q.Get("correlation_id"),
		Event:      q.Get("event"),
		Handler:    q.Get("handler"),
		Serial:     q.Get("serial"),
		Owner:      q.Get("owner"),
		FailedOnly: q.Get("failed") == "true",
	}

	var entries []core.AuditEntry
	var err error
	if !query.IsEmpty() {
		logger.Debug().Msg("applying audit log filters")
		entries, err = reader.Find(query.Filter(), limit)
	} else {
		logger.Debug().Msg("retrieving recent audit log entries")
		entries, err = reader.GetRecent(limit)
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}

// handleAdminTokens lists all tokens of the token library.
func (s *Server) handleAdminTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.tokens.List(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to list tokens")
		presenter.Error(w, r, "failed to list tokens", http.StatusInternalServerError)
		return
	}
	presenter.JSON(w, r, tokens, http.StatusOK)
}

func (s *Server) handleAdminToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.tokens.Get(r.Context(), r.PathValue("serial"))
	if err != nil {
		presenter.Err(w, r, err, "failed to get token")
		return
	}
	presenter.JSON(w, r, token, http.StatusOK)
}

func (s *Server) handleAdminRealms(w http.ResponseWriter, r *http.Request) {
	realms, err := s.tokens.ListRealms(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to list realms")
		presenter.Error(w, r, "failed to list realms", http.StatusInternalServerError)
		return
	}
	presenter.JSON(w, r, realms, http.StatusOK)
}

// handleAdminAddRealm makes a new realm known, e.g. so that "set tokenrealm" handlers can use it.
func (s *Server) handleAdminAddRealm(w http.ResponseWriter, r *http.Request) {
	realm := r.PathValue("realm")
	if err := s.tokens.AddRealm(r.Context(), realm); err != nil {
		presenter.Err(w, r, err, "failed to add realm")
		return
	}
	log.Ctx(r.Context()).Info().Str("realm", realm).Msg("realm added")

	realms, err := s.tokens.ListRealms(r.Context())
	if err != nil {
		presenter.Err(w, r, err, "failed to list realms")
		return
	}
	presenter.JSON(w, r, realms, http.StatusCreated)
}
