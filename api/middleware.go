package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	localsRequestID = "request_id"
)

// requestID propagates the caller's request id or mints a new one.
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(localsRequestID, id)
	c.Set(headerRequestID, id)
	return c.Next()
}

// observe records request metrics and logs the request at debug level.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	elapsed := time.Since(start)

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}

	path := c.Route().Path
	s.config.Metrics.ObserveHTTP(c.Method(), path, status, elapsed)

	s.logger.Debug("http request",
		"request_id", requestIDFrom(c),
		"method", c.Method(),
		"path", path,
		"status", status,
		"duration", elapsed,
	)
	return err
}

func requestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(localsRequestID).(string)
	return id
}
