// Package handlers provides core API handler functionality shared by the
// NIM proxy's endpoint handlers: the uniform error envelope and the base
// handler that carries configuration, the upstream client, the model
// registry, and metrics.
package handlers

import (
	"sync"

	"github.com/nimroute/nim-proxy/internal/client"
	"github.com/nimroute/nim-proxy/internal/config"
	"github.com/nimroute/nim-proxy/internal/metrics"
	"github.com/nimroute/nim-proxy/internal/registry"
)

// ErrorTypeProxy is the fixed error type tag carried by every caller-visible
// failure envelope.
const ErrorTypeProxy = "proxy_error"

// ErrorResponse represents the uniform error envelope returned for every
// caller-visible failure.
type ErrorResponse struct {
	// Error contains detailed information about the error that occurred.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail provides specific information about an error that occurred.
type ErrorDetail struct {
	// Message is a human-readable message describing the failure.
	Message string `json:"message"`

	// Type is always "proxy_error" for failures surfaced by this proxy.
	Type string `json:"type"`

	// Code is the HTTP status code associated with the failure, if any.
	Code int `json:"code,omitempty"`
}

// NewErrorResponse builds the uniform error envelope for the given status
// code and message.
func NewErrorResponse(statusCode int, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    ErrorTypeProxy,
			Code:    statusCode,
		},
	}
}

// BaseAPIHandler carries the shared collaborators every endpoint handler
// needs. The config pointer is swapped atomically on reload; the registry is
// updated in place, so requests in flight keep a consistent view.
type BaseAPIHandler struct {
	mu sync.RWMutex

	cfg *config.Config

	// Client is the outbound NIM API client, fixed at startup.
	Client *client.NIMClient

	// Registry is the model mapping table.
	Registry *registry.ModelRegistry

	// Metrics collects request and upstream observations.
	Metrics *metrics.Collector
}

// NewBaseAPIHandler creates the shared handler state.
func NewBaseAPIHandler(cfg *config.Config, nimClient *client.NIMClient, reg *registry.ModelRegistry, collector *metrics.Collector) *BaseAPIHandler {
	return &BaseAPIHandler{
		cfg:      cfg,
		Client:   nimClient,
		Registry: reg,
		Metrics:  collector,
	}
}

// Config returns the current configuration snapshot.
func (h *BaseAPIHandler) Config() *config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// UpdateConfig swaps in a reloaded configuration and rebuilds the model
// mapping table from it. The upstream credential and listen port are
// startup-only and are not affected.
func (h *BaseAPIHandler) UpdateConfig(cfg *config.Config) {
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	h.Registry.Update(cfg)
}
