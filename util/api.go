package util

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bwise1/comment_service/util/tracing"
	"github.com/bwise1/comment_service/util/values"
	"github.com/pkg/errors"
)

// StatusCode returns the status code represented
// by the specified status. Note that this function
// returns a status code of 200 by default
func StatusCode(status string) int {
	switch status {
	case values.Error:
		return http.StatusInternalServerError
	case values.Created:
		return http.StatusCreated
	case values.BadRequestBody:
		return http.StatusBadRequest
	case values.TooLarge:
		return http.StatusRequestEntityTooLarge
	case values.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

// DecodeJSONBody decodes exactly one JSON value from body into target.
// Anything after that value is rejected.
func DecodeJSONBody(tc *tracing.Context, body io.ReadCloser, target interface{}) error {
	if body == nil || body == http.NoBody {
		return errors.Errorf("missing request body for request: %s", tc.RequestID)
	}
	defer func() {
		_ = body.Close()
	}()

	dec := json.NewDecoder(body)
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.Errorf("missing request body for request: %s", tc.RequestID)
		}
		return errors.Wrapf(err, "error parsing json body for request: %s", tc.RequestID)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if IsBodyTooLarge(err) {
			return errors.Wrapf(err, "error parsing json body for request: %s", tc.RequestID)
		}
		return errors.Errorf("unexpected data after json body for request: %s", tc.RequestID)
	}

	return nil
}

// IsBodyTooLarge reports whether err came from a body capped by
// http.MaxBytesReader.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
