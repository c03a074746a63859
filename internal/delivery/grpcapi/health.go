package grpcapi

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ProxyServiceName = "storeproxy.StoreProxy"

type HealthHandler struct {
	server *health.Server
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{server: health.NewServer()}
}

func (h *HealthHandler) Register(grpcServer *grpc.Server) {
	healthpb.RegisterHealthServer(grpcServer, h.server)
}

func (h *HealthHandler) SetServing() {
	h.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.server.SetServingStatus(ProxyServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown flips every service to NOT_SERVING and ignores later updates.
func (h *HealthHandler) Shutdown() {
	h.server.Shutdown()
}
