package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/LavaJover/shvark-store-proxy/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	uc usecase.CartUsecase
}

func NewCartHandler(uc usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

func (h *CartHandler) Init(c *gin.Context) {
	h.relay(c, h.uc.Init)
}

func (h *CartHandler) GetCart(c *gin.Context) {
	h.relay(c, h.uc.GetCart)
}

func (h *CartHandler) ListProducts(c *gin.Context) {
	query := c.Request.URL.Query()
	h.relay(c, func(ctx context.Context) (*domain.RelayResponse, error) {
		return h.uc.ListProducts(ctx, query)
	})
}

func (h *CartHandler) AddItem(c *gin.Context) {
	h.relayWithBody(c, h.uc.AddItem)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	h.relayWithBody(c, h.uc.UpdateItem)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	h.relayWithBody(c, h.uc.RemoveItem)
}

func (h *CartHandler) relayWithBody(c *gin.Context, call func(context.Context, []byte) (*domain.RelayResponse, error)) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, fmt.Errorf("failed to read request body: %w", err))
		return
	}
	h.relay(c, func(ctx context.Context) (*domain.RelayResponse, error) {
		return call(ctx, body)
	})
}

func (h *CartHandler) relay(c *gin.Context, call func(context.Context) (*domain.RelayResponse, error)) {
	ctx := c.Request.Context()

	resp, err := call(ctx)
	if err != nil {
		session := domain.SessionFromContext(ctx)
		var upstreamErr *domain.UpstreamError
		if errors.As(err, &upstreamErr) {
			session = session.Merge(upstreamErr.Session)
		}
		writeSession(c, session)
		writeError(c, err)
		return
	}

	writeSession(c, resp.Session)
	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}

func writeSession(c *gin.Context, session domain.Session) {
	if session.CartToken != "" {
		c.Header(domain.CartTokenHeader, session.CartToken)
	}
	if session.Nonce != "" {
		c.Header(domain.NonceHeader, session.Nonce)
	}
}
