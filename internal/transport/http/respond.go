package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"esquematiza/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// statusFor maps an error kind to its HTTP status. Unknown kinds are internal.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindEmptyFilter, domain.KindNoActiveSession, domain.KindIndexOutOfRange,
		domain.KindInvalidChoice, domain.KindInvalidSampleSize, domain.KindInvalidRequest,
		domain.KindEssayTooShort:
		return http.StatusBadRequest
	case domain.KindNoQuestionsAvailable, domain.KindUnknownQuestion, domain.KindUnknownPrompt:
		return http.StatusNotFound
	case domain.KindGraderUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindGraderFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Kind    domain.Kind `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ok writes a success envelope: fields are merged next to "success": true.
func ok(w http.ResponseWriter, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

// fail writes the localized error envelope. Internal errors are logged and never echoed.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"kind":       kind,
		}).WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorBody{
		Success: false,
		Error:   s.catalog.T(r.Context(), string(kind)),
		Kind:    kind,
	})
}

var validate = validator.New()

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidRequest
	}
	return validateStruct(dst)
}

// validateStruct runs the validate tags; a bad sample size keeps its own kind.
func validateStruct(dst any) error {
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "N" {
					return domain.ErrInvalidSampleSize
				}
			}
		}
		return domain.ErrInvalidRequest
	}
	return nil
}
