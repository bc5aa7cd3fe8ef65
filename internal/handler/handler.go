package handler

import (
	"github.com/leca/loqed-births/internal/gateway"
	"github.com/leca/loqed-births/internal/registry"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Registry *registry.Service
	Images   *gateway.Gateway
	// MaxUploadBytes bounds multipart bodies held in memory.
	MaxUploadBytes int64
}
