package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/elvenok1/servidor-api-rag/pkg/readiness"
)

// ReadyResponse describes startup verification and the collection identity.
type ReadyResponse struct {
	State          string `json:"state"`
	Collection     string `json:"collection"`
	EmbeddingModel string `json:"embedding_model"`
	Fingerprint    string `json:"fingerprint"`
	Error          string `json:"error,omitempty"`
}

// handleRoot is the liveness endpoint.
func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "active"})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleReady returns 200 only once the pipeline is verified.
func (s *Server) handleReady(c *fiber.Ctx) error {
	r := s.config.Readiness
	identity := r.Identity()
	state := r.State()

	resp := ReadyResponse{
		State:          state.String(),
		Collection:     identity.Name,
		EmbeddingModel: identity.EmbeddingModel,
		Fingerprint:    identity.Fingerprint(),
	}
	if err := r.Err(); err != nil {
		resp.Error = err.Error()
	}

	status := fiber.StatusOK
	if state != readiness.Ready {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
