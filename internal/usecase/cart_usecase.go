package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/LavaJover/shvark-store-proxy/internal/domain"
	"github.com/LavaJover/shvark-store-proxy/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

const (
	cartPath           = "/cart"
	productsPath       = "/products"
	cartAddItemPath    = "/cart/add-item"
	cartUpdateItemPath = "/cart/update-item"
	cartRemoveItemPath = "/cart/remove-item"
)

const (
	nonceSourceClient = "client"
	nonceSourceStore  = "store"
	nonceSourceNone   = "none"
)

var cartEventTypes = map[string]domain.CartEventType{
	cartAddItemPath:    domain.CartItemAdded,
	cartUpdateItemPath: domain.CartItemUpdated,
	cartRemoveItemPath: domain.CartItemRemoved,
}

type CartUsecase interface {
	Init(ctx context.Context) (*domain.RelayResponse, error)
	GetCart(ctx context.Context) (*domain.RelayResponse, error)
	ListProducts(ctx context.Context, query url.Values) (*domain.RelayResponse, error)
	AddItem(ctx context.Context, body []byte) (*domain.RelayResponse, error)
	UpdateItem(ctx context.Context, body []byte) (*domain.RelayResponse, error)
	RemoveItem(ctx context.Context, body []byte) (*domain.RelayResponse, error)
	Relay(ctx context.Context, req domain.RelayRequest) (*domain.RelayResponse, error)
}

type DefaultCartUsecase struct {
	forwarder domain.Forwarder
	nonces    domain.NonceStore
	publisher domain.CartEventPublisher
	audit     domain.RelayAuditRepository
	metrics   *metrics.ProxyMetrics
	now       func() time.Time
	inflight  sync.WaitGroup
}

// NewDefaultCartUsecase wires the relay. audit may be nil.
func NewDefaultCartUsecase(
	forwarder domain.Forwarder,
	nonces domain.NonceStore,
	events domain.CartEventPublisher,
	audit domain.RelayAuditRepository,
	proxyMetrics *metrics.ProxyMetrics,
) *DefaultCartUsecase {
	return &DefaultCartUsecase{
		forwarder: forwarder,
		nonces:    nonces,
		publisher: events,
		audit:     audit,
		metrics:   proxyMetrics,
		now:       time.Now,
	}
}

// Init starts (or resumes) a storefront session. The upstream issues a cart
// token and nonce on its first cart read.
func (uc *DefaultCartUsecase) Init(ctx context.Context) (*domain.RelayResponse, error) {
	return uc.Relay(ctx, domain.RelayRequest{Method: http.MethodGet, Path: cartPath})
}

func (uc *DefaultCartUsecase) GetCart(ctx context.Context) (*domain.RelayResponse, error) {
	return uc.Relay(ctx, domain.RelayRequest{Method: http.MethodGet, Path: cartPath})
}

func (uc *DefaultCartUsecase) ListProducts(ctx context.Context, query url.Values) (*domain.RelayResponse, error) {
	return uc.Relay(ctx, domain.RelayRequest{Method: http.MethodGet, Path: productsPath, Query: query})
}

func (uc *DefaultCartUsecase) AddItem(ctx context.Context, body []byte) (*domain.RelayResponse, error) {
	return uc.Relay(ctx, domain.RelayRequest{Method: http.MethodPost, Path: cartAddItemPath, Body: body, Mutating: true})
}

func (uc *DefaultCartUsecase) UpdateItem(ctx context.Context, body []byte) (*domain.RelayResponse, error) {
	return uc.Relay(ctx, domain.RelayRequest{Method: http.MethodPost, Path: cartUpdateItemPath, Body: body, Mutating: true})
}

func (uc *DefaultCartUsecase) RemoveItem(ctx context.Context, body []byte) (*domain.RelayResponse, error) {
	return uc.Relay(ctx, domain.RelayRequest{Method: http.MethodPost, Path: cartRemoveItemPath, Body: body, Mutating: true})
}

// Relay forwards req with the session found in ctx and returns the upstream
// response with the session refreshed from upstream headers.
func (uc *DefaultCartUsecase) Relay(ctx context.Context, req domain.RelayRequest) (*domain.RelayResponse, error) {
	session := domain.SessionFromContext(ctx)
	if req.Mutating {
		session = uc.resolveNonce(session)
	}

	start := uc.now()
	resp, err := uc.forwarder.Forward(ctx, req, session)
	duration := uc.now().Sub(start)

	if err != nil {
		status := http.StatusInternalServerError
		errorType := "transport"
		var upstreamErr *domain.UpstreamError
		if errors.As(err, &upstreamErr) {
			status = upstreamErr.StatusCode
			errorType = "upstream_status"
			// A rejected mutation may still hand out a fresh nonce.
			upstreamErr.Session = uc.refreshSession(session, upstreamErr.Session)
		}
		uc.metrics.RecordUpstreamRequest(req.Method, req.Path, status, duration.Seconds())
		uc.metrics.RecordUpstreamError(req.Path, errorType)
		uc.recordAudit(ctx, req, session, status, duration, err)

		slog.Warn("store api relay failed",
			"request_id", domain.RequestIDFromContext(ctx),
			"method", req.Method,
			"path", req.Path,
			"status", status,
			"error", err,
		)
		return nil, err
	}

	uc.metrics.RecordUpstreamRequest(req.Method, req.Path, resp.StatusCode, duration.Seconds())

	refreshed := uc.refreshSession(session, resp.Session)
	resp.Session = refreshed

	uc.recordAudit(ctx, req, refreshed, resp.StatusCode, duration, nil)
	if req.Mutating {
		uc.inflight.Add(1)
		go func() {
			defer uc.inflight.Done()
			uc.publishCartEvent(context.WithoutCancel(ctx), req, refreshed, resp.StatusCode)
		}()
	}

	return resp, nil
}

// Wait blocks until in-flight cart event publishes finish.
func (uc *DefaultCartUsecase) Wait() {
	uc.inflight.Wait()
}

func (uc *DefaultCartUsecase) refreshSession(current, upstream domain.Session) domain.Session {
	refreshed := current.Merge(upstream)
	if upstream.Nonce != "" {
		uc.nonces.Set(refreshed.CartToken, upstream.Nonce)
	}
	return refreshed
}

func (uc *DefaultCartUsecase) resolveNonce(session domain.Session) domain.Session {
	if session.Nonce != "" {
		uc.metrics.RecordNonceLookup(nonceSourceClient)
		return session
	}
	if nonce, ok := uc.nonces.Get(session.CartToken); ok {
		uc.metrics.RecordNonceLookup(nonceSourceStore)
		session.Nonce = nonce
		return session
	}
	uc.metrics.RecordNonceLookup(nonceSourceNone)
	return session
}

func (uc *DefaultCartUsecase) publishCartEvent(ctx context.Context, req domain.RelayRequest, session domain.Session, status int) {
	eventType, ok := cartEventTypes[req.Path]
	if !ok {
		eventType = domain.CartUpdated
	}

	event := domain.CartEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		CartToken:  session.CartToken,
		Path:       req.Path,
		StatusCode: status,
		OccurredAt: uc.now().UTC(),
	}

	err := uc.publisher.PublishCartEvent(ctx, event)
	uc.metrics.RecordCartEventPublished(string(eventType), err)
	if err != nil {
		slog.Error("failed to publish cart event",
			"request_id", domain.RequestIDFromContext(ctx),
			"event_id", event.ID,
			"type", eventType,
			"error", err,
		)
	}
}

func (uc *DefaultCartUsecase) recordAudit(ctx context.Context, req domain.RelayRequest, session domain.Session, status int, duration time.Duration, relayErr error) {
	if uc.audit == nil {
		return
	}

	record := &domain.RelayRecord{
		ID:         uuid.New().String(),
		RequestID:  domain.RequestIDFromContext(ctx),
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: status,
		Duration:   duration,
		CartToken:  session.CartToken,
		CreatedAt:  uc.now().UTC(),
	}
	if relayErr != nil {
		record.Error = relayErr.Error()
	}

	if err := uc.audit.Save(context.WithoutCancel(ctx), record); err != nil {
		slog.Error("failed to save relay audit record", "request_id", record.RequestID, "error", err)
	}
}
