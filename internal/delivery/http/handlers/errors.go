package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LavaJover/shvark-store-proxy/internal/delivery/http/dto/response"
	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/gin-gonic/gin"
)

// writeError relays upstream failures with their own status and wraps the
// upstream payload; everything else is a 500.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		c.JSON(upstreamErr.StatusCode, response.ErrorResponse{
			Error:    upstreamErr.Message,
			Upstream: upstreamPayload(upstreamErr.Body),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
}

func upstreamPayload(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}
