package presenter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/toki/internal/dispatch"
	"github.com/darmiel/toki/internal/store"
)

type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`
}

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	StatusCode int
	Wrapped    error
}

func (e HTTPError) Error() string {
	return e.Wrapped.Error()
}

func (e HTTPError) Unwrap() error {
	return e.Wrapped
}

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	correlationID, _ := r.Context().Value("correlation_id").(string)
	resp := ErrorResponse{
		Error:         msg,
		CorrelationID: correlationID,
	}
	JSON(w, r, resp, status)
}

func Err(w http.ResponseWriter, r *http.Request, err error, short string) {
	Error(w, r, short+": "+err.Error(), StatusFor(err))
}

// StatusFor maps errors of the token library and the dispatcher to HTTP status codes.
func StatusFor(err error) int {
	var httpError HTTPError
	switch {
	case errors.As(err, &httpError):
		return httpError.StatusCode
	case errors.Is(err, store.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnknownRealm),
		errors.Is(err, store.ErrUnknownTokenType),
		errors.Is(err, store.ErrInvalidArgument),
		errors.Is(err, dispatch.ErrInvalidOption):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
