package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"delivery-dispatch/internal/apperr"
	"delivery-dispatch/internal/logx"
)

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("json encode error",
			logx.String("req_id", reqID(r.Context())),
			logx.Any("err", err),
		)
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, msg string) {
	logger.Warn("http error",
		logx.String("req_id", reqID(r.Context())),
		logx.Int("status", status),
		logx.String("msg", msg),
	)
	writeJSON(logger, w, r, status, errResponse{Error: msg})
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses. All of
// these are recoverable caller-facing failures; anything unrecognized is a
// 500.
func writeDomainError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		writeError(logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeError(logger, w, r, http.StatusBadRequest, "invalid status transition")
	case errors.Is(err, apperr.ErrOtpRequired):
		writeError(logger, w, r, http.StatusBadRequest, "otp verification required")
	case errors.Is(err, apperr.ErrInvalidOtp):
		writeError(logger, w, r, http.StatusBadRequest, "invalid otp")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(logger, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrNoLocationYet):
		writeError(logger, w, r, http.StatusNotFound, "location not yet available")
	case errors.Is(err, apperr.ErrAssignmentExists):
		writeError(logger, w, r, http.StatusConflict, "delivery boy already assigned")
	case errors.Is(err, apperr.ErrAssignmentTaken):
		writeError(logger, w, r, http.StatusConflict, "assignment no longer available")
	case errors.Is(err, apperr.ErrNoPartnersAvailable):
		writeError(logger, w, r, http.StatusConflict, "no delivery boys available nearby")
	case errors.Is(err, apperr.ErrAlreadyDelivered):
		writeError(logger, w, r, http.StatusConflict, "already delivered")
	default:
		writeError(logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

const (
	bodyLimit = 1 << 20
)

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "invalid json: trailing data")
		return false
	}
	return true
}

// actorHeader carries the authenticated actor id injected by the session
// gateway. The session mechanism itself lives outside this service.
const actorHeader = "X-Actor-ID"

func actorID(r *http.Request) string {
	return r.Header.Get(actorHeader)
}
