package api

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/elvenok1/servidor-api-rag/api/search"
	"github.com/elvenok1/servidor-api-rag/pkg/retrieval"
)

// ErrorResponse is the body of every failed search.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// LegacySearchRequest is the body of POST /buscar.
type LegacySearchRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k,omitempty"`
}

// LegacySearchResponse is the success body of POST /buscar, which names the
// hits "resultados".
type LegacySearchResponse struct {
	Status     string          `json:"status"`
	Resultados []retrieval.Hit `json:"resultados"`
}

// handleSearchQuery handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default from config): number of results to return
//
// An absent top_k selects the default; top_k=0 is passed through and rejected.
func (s *Server) handleSearchQuery(c *fiber.Ctx) error {
	var topK *int
	if raw, ok := c.Queries()["top_k"]; ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return s.writeError(c, badRequest("top_k must be an integer"))
		}
		topK = &parsed
	}

	resp, err := s.search(c, c.Query("query"), topK)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(resp)
}

// handleSearchBody handles POST /v1/search requests.
func (s *Server) handleSearchBody(c *fiber.Ctx) error {
	var input apisearch.SearchInput
	if err := c.BodyParser(&input); err != nil {
		return s.writeError(c, badRequest("request body must be a JSON object with a query"))
	}

	resp, err := s.search(c, input.Query, input.TopK)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(resp)
}

// handleLegacySearch handles POST /buscar, which takes "question" instead of "query".
func (s *Server) handleLegacySearch(c *fiber.Ctx) error {
	var input LegacySearchRequest
	if err := c.BodyParser(&input); err != nil {
		return s.writeError(c, badRequest("request body must be a JSON object with a question"))
	}

	resp, err := s.search(c, input.Question, input.TopK)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(LegacySearchResponse{Status: resp.Status, Resultados: resp.Results})
}

func (s *Server) search(c *fiber.Ctx, query string, topK *int) (*retrieval.Response, error) {
	ctx := apisearch.WithRequestID(c.UserContext(), requestIDFrom(c))
	return s.config.Searcher.Search(ctx, query, topK)
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	kind := retrieval.KindOf(err)
	return c.Status(statusCode(err)).JSON(ErrorResponse{
		Status: kind,
		Error:  err.Error(),
	})
}

// statusCode maps the error taxonomy onto HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, retrieval.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, retrieval.ErrServiceUnavailable), errors.Is(err, retrieval.ErrConfiguration):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", retrieval.ErrInvalidArgument, msg)
}
