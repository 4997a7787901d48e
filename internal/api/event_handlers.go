package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/toki/internal/api/middleware"
	"github.com/darmiel/toki/internal/api/presenter"
	"github.com/darmiel/toki/internal/hooks"
)

// EventPayload carries the data of a triggered event.
type EventPayload struct {
	// Request is the decoded inbound request of the event (e.g. user, realm, serial).
	Request map[string]any `json:"request,omitempty"`

	// Response is the decoded outbound response body, e.g. {"detail": {"serial": "..."}}.
	Response map[string]any `json:"response,omitempty"`

	// Audit is the audit record collected for the request so far.
	Audit map[string]any `json:"audit,omitempty"`
}

// EventResponse tells which handlers ran for an event.
type EventResponse struct {
	Event         string          `json:"event"`
	CorrelationID string          `json:"correlation_id"`
	Outcomes      []hooks.Outcome `json:"outcomes"`
	Error         string          `json:"error,omitempty"`
}

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

// handleTriggerEvent runs the handlers subscribed to the event in the path.
func (s *Server) handleTriggerEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event := r.PathValue("event")
	reqID := middleware.CorrelationCtx(ctx)

	logger := log.Ctx(ctx)
	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("event", event)
	})

	var payload EventPayload
	if err := DecodePayload(r, &payload, true /* allow empty */); err != nil {
		logger.Warn().Err(err).Msg("failed to decode event payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	outcomes, err := s.manager.Trigger(ctx, event, hooks.Event{
		CorrelationID: reqID,
		Request:       payload.Request,
		Response:      payload.Response,
		Audit:         payload.Audit,
	})
	resp := EventResponse{
		Event:         event,
		CorrelationID: reqID,
		Outcomes:      outcomes,
	}
	if resp.Outcomes == nil {
		resp.Outcomes = []hooks.Outcome{}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("event handling failed")
		resp.Error = err.Error()
		presenter.JSON(w, r, resp, presenter.StatusFor(err))
		return
	}

	logger.Info().Int("handlers", len(outcomes)).Msg("event handled")
	presenter.JSON(w, r, resp, http.StatusOK)
}
