package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coffersTech/logreport/internal/engine"
)

// apiError is the body of every non-2xx JSON response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Code: code, Message: message})
}

// statusFor maps an engine failure onto a response. Internal details of I/O
// failures stay in the server log.
func statusFor(err error) (int, apiError) {
	kind := engine.KindOf(err)
	switch kind {
	case engine.KindDirectoryNotFound:
		msg := "logs directory not found"
		var e *engine.Error
		if errors.As(err, &e) && e.Path != "" {
			msg += ": " + e.Path
		}
		return http.StatusBadRequest, apiError{Code: kind.String(), Message: msg}
	case engine.KindInvalidQuery:
		return http.StatusBadRequest, apiError{Code: kind.String(), Message: err.Error()}
	case engine.KindCanceled:
		return http.StatusServiceUnavailable, apiError{Code: kind.String(), Message: "report generation was canceled"}
	case engine.KindIOFailure:
		return http.StatusInternalServerError, apiError{Code: kind.String(), Message: "failed to read log files"}
	default:
		return http.StatusInternalServerError, apiError{Code: "internal_error", Message: "internal server error"}
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("report generation failed", "request_id", RequestID(r.Context()), "code", body.Code, "error", err)
	}
	writeJSON(w, status, body)
}

func reportTexts(reports []engine.Report) []string {
	texts := make([]string, len(reports))
	for i, r := range reports {
		texts[i] = r.Text
	}
	return texts
}
