package domain

import (
	"context"
	"net/url"
)

type RelayRequest struct {
	Method   string
	Path     string
	Query    url.Values
	Body     []byte
	Mutating bool
}

type RelayResponse struct {
	StatusCode int
	Body       []byte
	Session    Session
}

// Forwarder performs one call against the upstream store API.
type Forwarder interface {
	Forward(ctx context.Context, req RelayRequest, session Session) (*RelayResponse, error)
}
