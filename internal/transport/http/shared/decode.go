package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"timesheets/internal/transport/http/api"
)

// DecodeJSON reads the request body into dst and writes the failure
// response itself. An empty body is accepted only when optional is set.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool, requestID string) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return true
	case optional && errors.Is(err, io.EOF):
		return true
	case errors.As(err, &tooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large",
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), requestID)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
	}
	return false
}
