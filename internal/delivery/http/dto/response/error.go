package response

import "encoding/json"

type ErrorResponse struct {
	Error    string          `json:"error"`
	Upstream json.RawMessage `json:"upstream,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
