package rest

import (
	"encoding/json"
	"net/http"

	"github.com/bwise1/comment_service/util"
	"github.com/bwise1/comment_service/util/tracing"
)

// ServerResponse is what every Handler returns. Only the body is written to
// the client: Data for successful reads and writes, {"message"} for
// successful responses without data, and {"error"} for failures.
type ServerResponse struct {
	Message    string
	Status     string
	StatusCode int
	Data       interface{}
	Err        error
}

func (resp *ServerResponse) body() interface{} {
	switch {
	case resp.StatusCode >= http.StatusBadRequest:
		return map[string]string{"error": resp.Message}
	case resp.Data != nil:
		return resp.Data
	default:
		return map[string]string{"message": resp.Message}
	}
}

func respondWithError(err error, message string, status string, tc *tracing.Context) *ServerResponse {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Err:        err,
	}
}

func writeJSONResponse(w http.ResponseWriter, content []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(content)
}

func writeErrorResponse(w http.ResponseWriter, err error, status string, message string) {
	resp := respondWithError(err, message, status, nil)
	content, _ := json.Marshal(resp.body())
	writeJSONResponse(w, content, resp.StatusCode)
}
