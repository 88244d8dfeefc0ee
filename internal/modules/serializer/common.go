// Package serializer shapes the gateway's JSON responses. Error payloads
// carry a bare message and never leak stack traces to clients.
package serializer

// ErrResponse is the `{error}` body used for 400 and 500 responses.
type ErrResponse struct {
	Error string `json:"error"`
}

// NotFoundResponse is the `{error, path}` body for unknown routes.
type NotFoundResponse struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

// SyncAck acknowledges an applied collection sync.
type SyncAck struct {
	Success bool `json:"success"`
}

func Err(msg string) ErrResponse {
	if msg == "" {
		msg = "internal error"
	}
	return ErrResponse{Error: msg}
}

func NotFound(path string) NotFoundResponse {
	return NotFoundResponse{Error: "not found", Path: path}
}
