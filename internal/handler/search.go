package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vibecut/api/internal/model"
	"github.com/vibecut/api/internal/service"
	"github.com/vibecut/api/pkg/response"
)

type SearchHandler struct {
	service   *service.SearchService
	validator *validator.Validate
}

func NewSearchHandler(svc *service.SearchService, v *validator.Validate) *SearchHandler {
	return &SearchHandler{
		service:   svc,
		validator: v,
	}
}

// Search handles POST /api/search. Queries that fail upstream contribute
// nothing; only an interrupted request is an error.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var req model.SearchRequest
	if ok, err := parseBody(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.service.Search(c.UserContext(), &req)
	if err != nil {
		return response.UpstreamError(c, err.Error())
	}

	return response.OK(c, result)
}
